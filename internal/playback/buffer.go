package playback

import (
	"image"
	"sync/atomic"
)

// DefaultBufferSize is the number of decoded frames held ahead of display.
const DefaultBufferSize = 30

// FrameBuffer is a bounded frame queue shared by one producer and one
// reader. Offer never blocks: when the buffer is full the offered frame is
// dropped. Take never blocks: it reports false when empty.
type FrameBuffer struct {
	frames  chan image.Image
	dropped atomic.Uint64
}

// NewFrameBuffer returns a buffer holding at most size frames.
func NewFrameBuffer(size int) *FrameBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &FrameBuffer{frames: make(chan image.Image, size)}
}

// Offer queues frame and reports whether it was kept.
func (b *FrameBuffer) Offer(frame image.Image) bool {
	select {
	case b.frames <- frame:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Take returns the oldest pending frame.
func (b *FrameBuffer) Take() (image.Image, bool) {
	select {
	case f := <-b.frames:
		return f, true
	default:
		return nil, false
	}
}

// Drain discards all pending frames and returns how many were discarded.
func (b *FrameBuffer) Drain() int {
	n := 0
	for {
		select {
		case <-b.frames:
			n++
		default:
			return n
		}
	}
}

// Dropped is the number of frames rejected because the buffer was full.
func (b *FrameBuffer) Dropped() uint64 { return b.dropped.Load() }
