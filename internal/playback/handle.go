// Package playback runs the frame producer for the current video. A Handle
// owns one open VideoSource, a stop flag and a bounded FrameBuffer; the
// producer goroutine decodes into the buffer, looping on end of stream,
// until the handle is stopped.
package playback

import (
	"sync"
	"sync/atomic"
	"time"

	"tiersort/internal/decode"
	"tiersort/internal/errors"
	"tiersort/internal/log"
	"tiersort/internal/media"
)

// Options tune a producer.
type Options struct {
	BufferSize   int
	ReadInterval time.Duration
	MaxWidth     int
	MaxHeight    int
}

// Stats describe one playback.
type Stats struct {
	Frames  uint64
	Dropped uint64
	Rewinds uint64
}

// Handle is the live playback of one video.
type Handle struct {
	item   media.WorkItem
	opts   Options
	frames *FrameBuffer

	// mu guards src. The producer holds it across each read and rewind;
	// Release holds it across Close.
	mu  sync.Mutex
	src decode.VideoSource

	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	released chan struct{}
	relOnce  sync.Once

	reads   atomic.Uint64
	rewinds atomic.Uint64
}

// Start takes ownership of src and launches its producer.
func Start(item media.WorkItem, src decode.VideoSource, opts Options) *Handle {
	if opts.ReadInterval <= 0 {
		opts.ReadInterval = 20 * time.Millisecond
	}
	h := &Handle{
		item:     item,
		opts:     opts,
		frames:   NewFrameBuffer(opts.BufferSize),
		src:      src,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		released: make(chan struct{}),
	}
	go h.run()
	return h
}

// Item is the video being played.
func (h *Handle) Item() media.WorkItem { return h.item }

// Frames is the buffer the producer fills.
func (h *Handle) Frames() *FrameBuffer { return h.frames }

// Stop sets the stop flag. It does not wait.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.stopped.Store(true)
		close(h.stopCh)
	})
}

// Done is closed once the producer has exited and released the source.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the producer has exited or timeout elapses. A producer
// that does not exit in time yields a ProducerStallError.
func (h *Handle) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-h.done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-h.done:
		return nil
	case <-t.C:
		return errors.NewProducerStallError(h.item.Name, timeout)
	}
}

// Release closes the source. It is idempotent and waits for any read in
// progress to finish.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaseLocked()
}

// ForceRelease stops the producer and closes the source without waiting on
// a read in progress. It reports whether the source was closed now; when it
// returns false the close happens as soon as the read returns.
func (h *Handle) ForceRelease() bool {
	h.Stop()
	if h.mu.TryLock() {
		h.releaseLocked()
		h.mu.Unlock()
		return true
	}
	go h.Release()
	return false
}

func (h *Handle) releaseLocked() {
	if h.src == nil {
		return
	}
	if err := h.src.Close(); err != nil {
		log.LogWithFields(log.F("item", h.item.Name)).WithError(err).Warn("Error closing video")
	}
	h.src = nil
	h.frames.Drain()
	h.relOnce.Do(func() { close(h.released) })
}

// Stats returns counters for this playback.
func (h *Handle) Stats() Stats {
	return Stats{
		Frames:  h.reads.Load(),
		Dropped: h.frames.Dropped(),
		Rewinds: h.rewinds.Load(),
	}
}

func (h *Handle) run() {
	defer close(h.done)
	defer h.Release()

	logger := log.LogWithFields(log.F("item", h.item.Name))
	logger.Debug("Producer started")
	defer func() {
		st := h.Stats()
		logger.With(
			log.F("frames", st.Frames),
			log.F("dropped", st.Dropped),
			log.F("rewinds", st.Rewinds),
		).Debug("Producer stopped")
	}()

	ticker := time.NewTicker(h.opts.ReadInterval)
	defer ticker.Stop()

	failures := 0
	for {
		if h.stopped.Load() {
			return
		}
		if ok := h.step(logger); ok {
			failures = 0
		} else {
			failures++
			if failures == 10 {
				logger.Warn("Video keeps failing to decode, retrying from start")
			}
		}

		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
		}
	}
}

// step reads one frame into the buffer, rewinding on end of stream or a
// decode error. It reports whether a frame was produced.
func (h *Handle) step(logger *log.Logger) bool {
	h.mu.Lock()
	if h.src == nil || h.stopped.Load() {
		h.mu.Unlock()
		return false
	}
	frame, err := h.src.ReadFrame()
	if err != nil {
		h.rewinds.Add(1)
		if rerr := h.src.Rewind(); rerr != nil {
			logger.WithError(rerr).Debug("Rewind failed")
		}
		h.mu.Unlock()
		return false
	}
	h.mu.Unlock()

	h.reads.Add(1)
	if h.opts.MaxWidth > 0 && h.opts.MaxHeight > 0 {
		frame = decode.ResizeToFit(frame, h.opts.MaxWidth, h.opts.MaxHeight)
	}
	if h.stopped.Load() {
		return false
	}
	h.frames.Offer(frame)
	return true
}
