// Package messages holds the tea messages a sorting session sends to the
// terminal UI.
package messages

import (
	"image"

	"tiersort/internal/media"
	"tiersort/internal/session"
)

type FrameMsg struct {
	Image image.Image
}

type ItemShownMsg struct {
	Item  media.WorkItem
	Stats session.Stats
}

type ErrorMsg struct {
	Err error
}

type WarningMsg struct {
	Err error
}

type SessionStartedMsg struct {
	Error error
}

type SessionCompleteMsg struct {
	Stats session.Stats
}

type SessionClosedMsg struct {
	Stats session.Stats
}
