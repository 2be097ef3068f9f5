// Package display pushes the latest decoded image to a surface on a fixed
// tick.
package display

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Surface is where frames are shown. It is owned by the front end.
type Surface interface {
	SetImage(img image.Image)
	// Alive reports whether the surface can still be drawn on.
	Alive() bool
}

// Source yields the next image to show without blocking.
type Source interface {
	Take() (image.Image, bool)
}

// Slot holds a single image that is taken once. Stills are decoded into a
// Slot; videos use the producer's frame buffer instead.
type Slot struct {
	mu  sync.Mutex
	img image.Image
}

// NewSlot returns a slot holding img.
func NewSlot(img image.Image) *Slot {
	return &Slot{img: img}
}

// Take returns the pending image and empties the slot.
func (s *Slot) Take() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, false
	}
	img := s.img
	s.img = nil
	return img, true
}

type sourceRef struct{ src Source }

// Pump moves images from the current source to the surface every tick.
type Pump struct {
	surface  Surface
	interval time.Duration
	source   atomic.Pointer[sourceRef]
	shown    atomic.Uint64
	done     chan struct{}
	once     sync.Once
}

// NewPump returns a pump for surface. Run starts it.
func NewPump(surface Surface, interval time.Duration) *Pump {
	if interval <= 0 {
		interval = 15 * time.Millisecond
	}
	return &Pump{surface: surface, interval: interval, done: make(chan struct{})}
}

// SetSource switches the pump to src. A nil src pauses display.
func (p *Pump) SetSource(src Source) {
	if src == nil {
		p.source.Store(nil)
		return
	}
	p.source.Store(&sourceRef{src: src})
}

// Shown is the number of images pushed to the surface.
func (p *Pump) Shown() uint64 { return p.shown.Load() }

// Done is closed when Run returns.
func (p *Pump) Done() <-chan struct{} { return p.done }

// Run ticks until ctx is cancelled or the surface goes away.
func (p *Pump) Run(ctx context.Context) {
	defer p.once.Do(func() { close(p.done) })

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.Tick() {
				return
			}
		}
	}
}

// Tick runs one pump cycle and reports whether the surface is still alive.
func (p *Pump) Tick() bool {
	if !p.surface.Alive() {
		return false
	}
	ref := p.source.Load()
	if ref == nil {
		return true
	}
	img, ok := ref.src.Take()
	if !ok {
		return true
	}
	p.surface.SetImage(img)
	p.shown.Add(1)
	return true
}
