package display

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSurface struct {
	mu     sync.Mutex
	images []image.Image
	alive  atomic.Bool
}

func newSurface() *recordingSurface {
	s := &recordingSurface{}
	s.alive.Store(true)
	return s
}

func (s *recordingSurface) SetImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
}

func (s *recordingSurface) Alive() bool { return s.alive.Load() }

func (s *recordingSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func TestSlotTakesOnce(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	s := NewSlot(img)

	got, ok := s.Take()
	require.True(t, ok)
	assert.Same(t, img, got)

	_, ok = s.Take()
	assert.False(t, ok)
}

func TestTickWithoutSource(t *testing.T) {
	surface := newSurface()
	p := NewPump(surface, time.Millisecond)
	assert.True(t, p.Tick())
	assert.Equal(t, 0, surface.count())
}

func TestTickShowsImageOnce(t *testing.T) {
	surface := newSurface()
	p := NewPump(surface, time.Millisecond)
	p.SetSource(NewSlot(image.NewRGBA(image.Rect(0, 0, 2, 2))))

	assert.True(t, p.Tick())
	assert.True(t, p.Tick())
	assert.Equal(t, 1, surface.count())
	assert.Equal(t, uint64(1), p.Shown())

	p.SetSource(nil)
	assert.True(t, p.Tick())
	assert.Equal(t, 1, surface.count())
}

func TestPumpStopsWhenSurfaceDies(t *testing.T) {
	surface := newSurface()
	p := NewPump(surface, time.Millisecond)
	p.SetSource(NewSlot(image.NewRGBA(image.Rect(0, 0, 1, 1))))

	go p.Run(context.Background())

	assert.Eventually(t, func() bool { return surface.count() == 1 }, time.Second, time.Millisecond)

	surface.alive.Store(false)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pump kept running after surface went away")
	}

	p.SetSource(NewSlot(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, surface.count())
}

func TestPumpStopsOnCancel(t *testing.T) {
	p := NewPump(newSurface(), time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("pump ignored cancellation")
	}
}
