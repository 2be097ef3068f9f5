package tui

import (
	"image"
	"sync/atomic"

	"tiersort/internal/media"
	"tiersort/internal/session"
	"tiersort/internal/tui/messages"

	tea "github.com/charmbracelet/bubbletea"
)

// bridge turns display and session callbacks into tea messages. It is the
// surface and notifier the controller sees.
type bridge struct {
	send  func(tea.Msg)
	alive atomic.Bool
}

func newBridge(send func(tea.Msg)) *bridge {
	b := &bridge{send: send}
	b.alive.Store(true)
	return b
}

func (b *bridge) stop() { b.alive.Store(false) }

func (b *bridge) SetImage(img image.Image) {
	if b.alive.Load() {
		b.send(messages.FrameMsg{Image: img})
	}
}

func (b *bridge) Alive() bool { return b.alive.Load() }

func (b *bridge) OnItemShown(item media.WorkItem, stats session.Stats) {
	b.send(messages.ItemShownMsg{Item: item, Stats: stats})
}

func (b *bridge) OnItemLoadFailed(err error)   { b.send(messages.ErrorMsg{Err: err}) }
func (b *bridge) OnRelocationFailed(err error) { b.send(messages.ErrorMsg{Err: err}) }
func (b *bridge) OnWarning(err error)          { b.send(messages.WarningMsg{Err: err}) }

func (b *bridge) OnSessionComplete(stats session.Stats) {
	b.send(messages.SessionCompleteMsg{Stats: stats})
}
