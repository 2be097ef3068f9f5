package session

import (
	"time"

	"tiersort/internal/display"
	"tiersort/internal/playback"
)

// presentation is how the current item reaches the screen. Stills and videos
// share the lifecycle: show, halt, release.
type presentation interface {
	source() display.Source
	// halt asks the presentation to stop and returns a channel closed once
	// the item's file is no longer open.
	halt() <-chan struct{}
	// wait blocks until halt has finished or timeout elapses, in which case
	// it returns a ProducerStallError.
	wait(timeout time.Duration) error
	// forceRelease closes the file without waiting for a stuck reader and
	// reports whether it was closed now.
	forceRelease() bool
	release()
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// still is a decoded image. Its file is closed once decoding returns.
type still struct {
	slot *display.Slot
}

func (s *still) source() display.Source   { return s.slot }
func (s *still) halt() <-chan struct{}    { return closedChan }
func (s *still) wait(time.Duration) error { return nil }
func (s *still) forceRelease() bool       { return true }
func (s *still) release()                 {}

// video is a running playback.
type video struct {
	h *playback.Handle
}

func (v *video) source() display.Source { return v.h.Frames() }

func (v *video) halt() <-chan struct{} {
	v.h.Stop()
	return v.h.Done()
}

func (v *video) wait(timeout time.Duration) error { return v.h.Wait(timeout) }

func (v *video) forceRelease() bool { return v.h.ForceRelease() }
func (v *video) release()           { v.h.Release() }
