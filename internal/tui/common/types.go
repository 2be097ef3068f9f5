package common

import (
	"tiersort/internal/media"
	"tiersort/internal/session"
)

// Phase is where the terminal UI is in a session's life.
type Phase int

const (
	Starting Phase = iota
	Sorting
	Closing
	Finished
)

// ModelReader defines the interface that views use to read model state
type ModelReader interface {
	Phase() Phase
	Frame() string
	Item() (media.WorkItem, bool)
	Stats() session.Stats
	Tiers() []string
	Status() (text string, isError bool)
	ShowHelp() bool
	Width() int
}
