//go:build !nogui

package gui

import (
	"fmt"
	"image"
	"strconv"
	"sync"
	"sync/atomic"

	"tiersort/internal/log"
	"tiersort/internal/media"
	"tiersort/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// sorterWindow shows the current item with one button per tier. It is the
// display surface and the notifier of its session.
type sorterWindow struct {
	app    *App
	window fyne.Window
	ctrl   *session.Controller
	tiers  []string

	picture *canvas.Image
	status  *widget.Label
	buttons []*widget.Button

	alive    atomic.Bool
	finished sync.Once
}

func newSorterWindow(a *App, req session.Request) *sorterWindow {
	s := &sorterWindow{
		app:    a,
		window: a.fyneApp.NewWindow("Tier Sort - " + req.Source),
		tiers:  media.CleanTiers(req.Tiers),
	}
	s.alive.Store(true)

	s.picture = canvas.NewImageFromImage(nil)
	s.picture.FillMode = canvas.ImageFillContain
	s.picture.ScaleMode = canvas.ImageScaleFastest
	s.picture.SetMinSize(fyne.NewSize(float32(a.cfg.Display.MaxWidth), float32(a.cfg.Display.MaxHeight)))

	s.status = widget.NewLabel("Loading...")

	row := container.NewGridWithColumns(max(len(s.tiers), 1))
	for i, tier := range s.tiers {
		label := tier
		if i < 9 {
			label = fmt.Sprintf("%s (%d)", tier, i+1)
		}
		tier := tier
		b := widget.NewButton(label, func() { s.choose(tier) })
		s.buttons = append(s.buttons, b)
		row.Add(b)
	}

	s.window.SetContent(container.NewBorder(s.status, row, nil, nil, s.picture))
	s.window.Canvas().SetOnTypedKey(s.onKey)
	s.window.SetCloseIntercept(func() {
		if !s.alive.Swap(false) {
			return
		}
		go func() {
			s.ctrl.Close()
			s.dispose()
		}()
	})
	return s
}

func (s *sorterWindow) onKey(ke *fyne.KeyEvent) {
	if ke.Name == fyne.KeyEscape {
		s.window.Close()
		return
	}
	n, err := strconv.Atoi(string(ke.Name))
	if err != nil || n < 1 || n > len(s.tiers) || n > 9 {
		return
	}
	s.choose(s.tiers[n-1])
}

func (s *sorterWindow) choose(tier string) {
	if s.ctrl == nil {
		return
	}
	if err := s.ctrl.SelectTier(tier); err != nil {
		log.LogWithError(err).Warn("Tier selection rejected")
	}
}

// SetImage implements display.Surface.
func (s *sorterWindow) SetImage(img image.Image) {
	if !s.alive.Load() {
		return
	}
	s.picture.Image = img
	s.picture.Refresh()
}

// Alive implements display.Surface.
func (s *sorterWindow) Alive() bool {
	return s.alive.Load()
}

func (s *sorterWindow) OnItemShown(item media.WorkItem, stats session.Stats) {
	s.status.SetText(fmt.Sprintf("%s  (%d of %d, %d left)", item.Name, stats.Decided()+1, stats.Total, stats.Remaining))
}

func (s *sorterWindow) OnItemLoadFailed(err error) {
	log.LogWithError(err).Warn("Skipped item")
	s.status.SetText("Skipped: " + err.Error())
	s.app.showNotification("Skipped item", err.Error())
}

func (s *sorterWindow) OnRelocationFailed(err error) {
	s.app.showNotification("Could not move file", err.Error())
}

func (s *sorterWindow) OnWarning(err error) {
	log.LogWithError(err).Warn("Session warning")
}

// OnSessionComplete runs on the session's own goroutine, so it must not
// call back into the controller.
func (s *sorterWindow) OnSessionComplete(stats session.Stats) {
	s.alive.Store(false)
	s.dispose()
	if stats.Total == 0 {
		s.app.ShowInfo("No items found to sort")
		return
	}
	s.app.ShowInfo(fmt.Sprintf("Sorting complete: %d moved, %d skipped, %d failed",
		stats.Relocated, stats.Skipped, stats.Failed))
}

// dispose closes the window and returns to setup. Safe to call twice.
func (s *sorterWindow) dispose() {
	s.finished.Do(func() {
		s.alive.Store(false)
		s.window.SetCloseIntercept(nil)
		s.window.Close()
		s.app.sessionEnded(s)
	})
}
