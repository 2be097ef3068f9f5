// Package log is the application logger. It wraps logrus behind a small
// field-oriented API so packages never import logrus directly.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"tiersort/internal/errors"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool

	mu     sync.RWMutex
	logger = NewLogger()
)

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

type options struct {
	out   io.Writer
	file  string
	json  bool
	level logrus.Level
}

// Option configures a Logger.
type Option func(*options)

// WithOutput sends log lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile appends log lines to path in addition to the configured output.
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names keep the default.
func WithLevel(level string) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
			o.level = lvl
		}
	}
}

// Logger writes structured entries through logrus.
type Logger struct {
	entry *logrus.Entry
	level logrus.Level
}

// NewLogger creates a logger. Without options it writes coloured text to
// stdout when stdout is a terminal.
func NewLogger(opts ...Option) *Logger {
	o := options{out: os.Stdout, level: logrus.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	base := logrus.New()
	// Filtering happens in enabled() so SetDebug can flip debug output on
	// for every logger at once.
	base.SetLevel(logrus.TraceLevel)

	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", o.file, err)
		} else {
			out = io.MultiWriter(out, f)
		}
	}
	base.SetOutput(out)

	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     isTerminal(o.out),
			DisableColors:   !isTerminal(o.out),
		})
	}

	return &Logger{entry: logrus.NewEntry(base), level: o.level}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), level: l.level}
}

// WithError returns a child logger carrying the fields extracted from err.
func (l *Logger) WithError(err error) *Logger {
	return l.With(errorFields(err)...)
}

func (l *Logger) enabled(lvl logrus.Level) bool {
	if lvl == logrus.DebugLevel && isDebug.Load() {
		return true
	}
	return lvl <= l.level
}

func (l *Logger) logf(lvl logrus.Level, format string, args ...interface{}) {
	if !l.enabled(lvl) {
		return
	}
	l.entry.Logf(lvl, format, args...)
}

func (l *Logger) Debug(msg string)                          { l.logf(logrus.DebugLevel, "%s", msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(logrus.DebugLevel, format, args...) }
func (l *Logger) Info(msg string)                           { l.logf(logrus.InfoLevel, "%s", msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(logrus.InfoLevel, format, args...) }
func (l *Logger) Warn(msg string)                           { l.logf(logrus.WarnLevel, "%s", msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(logrus.WarnLevel, format, args...) }
func (l *Logger) Error(msg string)                          { l.logf(logrus.ErrorLevel, "%s", msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(logrus.ErrorLevel, format, args...) }

// errorFields flattens an application error into log fields.
func errorFields(err error) []Field {
	if err == nil {
		return nil
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", errors.KindOf(err).String()),
	}

	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var loadErr *errors.ItemLoadError
	if errors.As(err, &loadErr) {
		fields = append(fields, F("item", loadErr.Item()))
	}
	var relErr *errors.RelocationError
	if errors.As(err, &relErr) {
		fields = append(fields, F("item", relErr.Item()), F("tier", relErr.Tier()))
	}
	var stallErr *errors.ProducerStallError
	if errors.As(err, &stallErr) {
		fields = append(fields, F("item", stallErr.Item()), F("timeout", stallErr.Timeout().String()))
	}
	return fields
}

// Configure replaces the package logger.
func Configure(opts ...Option) {
	l := NewLogger(opts...)
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetDebug forces debug output on or off for every logger.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// LogWithFields returns the package logger with fields attached.
func LogWithFields(fields ...Field) *Logger {
	return current().With(fields...)
}

// LogWithError returns the package logger with error fields attached.
func LogWithError(err error) *Logger {
	return current().WithError(err)
}

// LogError logs err at error level with a message.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

func Info(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Infof logs a formatted message
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Debug logs a formatted debug message
func Debug(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Debugf logs a formatted debug message
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Warn logs a formatted warning
func Warn(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Warnf logs a formatted warning
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Error logs a formatted error
func Error(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// Errorf logs a formatted error
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}
