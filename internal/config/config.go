package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tiersort/internal/errors"

	"gopkg.in/yaml.v3"
)

// Collision strategies for a destination that already exists.
const (
	CollisionError     = "error"
	CollisionRename    = "rename"
	CollisionOverwrite = "overwrite"
)

// Sorting modes.
const (
	ModePictures = "pictures"
	ModeVideos   = "videos"
)

// Duration is a time.Duration that reads and writes YAML as "20ms", "2s".
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Sorting controls what a session enumerates and how tiers are named.
type Sorting struct {
	Mode            string   `yaml:"mode"`             // pictures or videos
	Tiers           []string `yaml:"tiers"`            // Default tier names
	ImageExtensions []string `yaml:"image_extensions"` // Without leading dot, case-insensitive
	VideoExtensions []string `yaml:"video_extensions"`
	ShuffleSeed     int64    `yaml:"shuffle_seed"` // 0 seeds from the clock
}

// Display bounds every rendered frame or image.
type Display struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// Playback tunes the frame producer and display pump.
type Playback struct {
	BufferSize   int      `yaml:"buffer_size"`   // Pending frames held before dropping
	ReadInterval Duration `yaml:"read_interval"` // Producer delay between reads
	PumpInterval Duration `yaml:"pump_interval"` // Display tick
	StopTimeout  Duration `yaml:"stop_timeout"`  // Wait for producer to acknowledge stop
	FFmpegPath   string   `yaml:"ffmpeg_path"`
	FFprobePath  string   `yaml:"ffprobe_path"`
}

// Relocation controls the move into tier folders.
type Relocation struct {
	Collision string `yaml:"collision"` // error, rename or overwrite
	DryRun    bool   `yaml:"dry_run"`   // Log moves without performing them
}

// Session toggles optional session safeguards.
type Session struct {
	Lock        bool `yaml:"lock"`         // Advisory lock on the source folder
	WatchSource bool `yaml:"watch_source"` // Skip items removed by other programs
}

// Log configures the application logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
}

// Config represents the application configuration structure.
type Config struct {
	Sorting    Sorting    `yaml:"sorting"`
	Display    Display    `yaml:"display"`
	Playback   Playback   `yaml:"playback"`
	Relocation Relocation `yaml:"relocation"`
	Session    Session    `yaml:"session"`
	Log        Log        `yaml:"log"`
}

// DefaultPath returns ~/.config/tiersort/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tiersort", "config.yaml"), nil
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Decoding onto the defaults leaves keys absent from the file untouched
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Sorting.Mode = ModePictures
	cfg.Sorting.Tiers = []string{"Good", "Bad"}
	cfg.Sorting.ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp"}
	cfg.Sorting.VideoExtensions = []string{"mp4", "mov", "avi", "mkv", "webm"}

	cfg.Display.MaxWidth = 854
	cfg.Display.MaxHeight = 480

	cfg.Playback.BufferSize = 30
	cfg.Playback.ReadInterval = Duration(20 * time.Millisecond)
	cfg.Playback.PumpInterval = Duration(15 * time.Millisecond)
	cfg.Playback.StopTimeout = Duration(2 * time.Second)
	cfg.Playback.FFmpegPath = "ffmpeg"
	cfg.Playback.FFprobePath = "ffprobe"

	cfg.Relocation.Collision = CollisionError

	cfg.Session.Lock = true
	cfg.Session.WatchSource = true

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func invalid(param, format string, args ...interface{}) error {
	return errors.NewConfigError(fmt.Sprintf(format, args...), param, errors.InvalidConfig, nil)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrInvalidConfig
	}

	switch strings.ToLower(c.Sorting.Mode) {
	case ModePictures, ModeVideos:
	default:
		return invalid("sorting.mode", "invalid mode %q", c.Sorting.Mode)
	}
	for i, ext := range c.Sorting.ImageExtensions {
		if strings.Trim(ext, ". ") == "" {
			return invalid("sorting.image_extensions", "extension %d is empty", i)
		}
	}
	for i, ext := range c.Sorting.VideoExtensions {
		if strings.Trim(ext, ". ") == "" {
			return invalid("sorting.video_extensions", "extension %d is empty", i)
		}
	}

	if c.Display.MaxWidth < 1 || c.Display.MaxHeight < 1 {
		return invalid("display", "max_width and max_height must be >= 1")
	}

	if c.Playback.BufferSize < 1 {
		return invalid("playback.buffer_size", "buffer size must be >= 1")
	}
	if c.Playback.ReadInterval < 0 {
		return invalid("playback.read_interval", "read interval must be >= 0")
	}
	if c.Playback.PumpInterval <= 0 {
		return invalid("playback.pump_interval", "pump interval must be > 0")
	}
	if c.Playback.StopTimeout <= 0 {
		return invalid("playback.stop_timeout", "stop timeout must be > 0")
	}

	switch c.Relocation.Collision {
	case CollisionError, CollisionRename, CollisionOverwrite:
	default:
		return invalid("relocation.collision", "invalid collision setting: %s", c.Relocation.Collision)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return invalid("log.format", "invalid log format: %s", c.Log.Format)
	}

	return nil
}

// NewTestConfig creates a configuration instance for testing purposes:
// fast playback timings and no folder lock or watcher.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Display.MaxWidth = 64
	cfg.Display.MaxHeight = 48
	cfg.Playback.BufferSize = 4
	cfg.Playback.ReadInterval = Duration(time.Millisecond)
	cfg.Playback.PumpInterval = Duration(2 * time.Millisecond)
	cfg.Playback.StopTimeout = Duration(500 * time.Millisecond)
	cfg.Session.Lock = false
	cfg.Session.WatchSource = false
	cfg.Sorting.ShuffleSeed = 1
	return cfg
}
