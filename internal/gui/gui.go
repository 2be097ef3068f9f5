//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"strings"

	"tiersort/internal/config"
	"tiersort/internal/decode"
	"tiersort/internal/log"
	"tiersort/internal/media"
	"tiersort/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// App is the GUI application: a setup window that starts sessions and a
// sorter window per session.
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        *config.Config
	ctx        context.Context

	modeRadio   *widget.RadioGroup
	folderEntry *widget.Entry
	tiersEntry  *widget.Entry
	preview     *widget.Label
	startButton *widget.Button

	sorter *sorterWindow
}

// NewApp creates a new GUI application
func NewApp(cfg *config.Config) *App {
	return newApp(app.NewWithID("io.github.tiersort"), cfg)
}

func newApp(fyneApp fyne.App, cfg *config.Config) *App {
	a := &App{
		fyneApp: fyneApp,
		cfg:     cfg,
		ctx:     context.Background(),
	}
	a.mainWindow = a.fyneApp.NewWindow("Tier Sort")
	a.setupMainWindow()
	return a
}

// Run starts the GUI application
func (a *App) Run() {
	a.mainWindow.Show()
	a.fyneApp.Run()
}

// GetMainWindow returns the main window for testing purposes
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// setupMainWindow builds the setup form.
func (a *App) setupMainWindow() {
	a.modeRadio = widget.NewRadioGroup([]string{modeLabel(media.Pictures), modeLabel(media.Videos)}, func(string) {
		a.refreshPreview()
	})
	a.modeRadio.Horizontal = true
	if mode, err := media.ParseMode(a.cfg.Sorting.Mode); err == nil {
		a.modeRadio.SetSelected(modeLabel(mode))
	} else {
		a.modeRadio.SetSelected(modeLabel(media.Pictures))
	}

	a.folderEntry = widget.NewEntry()
	a.folderEntry.SetPlaceHolder("Folder to sort")
	a.folderEntry.OnChanged = func(string) { a.refreshPreview() }

	browseButton := widget.NewButton("Browse...", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			a.folderEntry.SetText(uri.Path())
		}, a.mainWindow)
	})

	a.tiersEntry = widget.NewEntry()
	a.tiersEntry.SetPlaceHolder("Comma separated, e.g. Good, Bad")
	a.tiersEntry.SetText(strings.Join(a.cfg.Sorting.Tiers, ", "))

	a.preview = widget.NewLabel("Select a folder to see what will be sorted")
	a.preview.Wrapping = fyne.TextWrapWord

	a.startButton = widget.NewButton("Start Sorting", func() {
		req, err := buildRequest(a.folderEntry.Text, a.tiersEntry.Text, a.modeRadio.Selected)
		if err != nil {
			a.ShowError("Cannot start", err)
			return
		}
		if err := a.startSession(req); err != nil {
			a.ShowError("Cannot start", err)
		}
	})
	a.startButton.Importance = widget.HighImportance

	form := widget.NewForm(
		widget.NewFormItem("Mode", a.modeRadio),
		widget.NewFormItem("Folder", container.NewBorder(nil, nil, nil, browseButton, a.folderEntry)),
		widget.NewFormItem("Tiers", a.tiersEntry),
	)

	a.mainWindow.SetContent(container.NewBorder(
		form,
		a.startButton,
		nil,
		nil,
		container.NewVScroll(a.preview),
	))
	a.mainWindow.Resize(fyne.NewSize(560, 420))

	a.mainWindow.Canvas().SetOnTypedKey(func(ke *fyne.KeyEvent) {
		switch ke.Name {
		case fyne.KeyReturn, fyne.KeyEnter:
			a.startButton.OnTapped()
		}
	})
}

func (a *App) refreshPreview() {
	if a.preview == nil || a.modeRadio == nil {
		return
	}
	mode, err := media.ParseMode(a.modeRadio.Selected)
	if err != nil {
		mode = media.Pictures
	}
	text, err := previewFolder(a.cfg, strings.TrimSpace(a.folderEntry.Text), mode)
	if err != nil {
		log.LogWithError(err).Debug("Folder preview failed")
	}
	a.preview.SetText(text)
}

func modeLabel(m media.Mode) string {
	name := m.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// buildRequest turns the setup form into a session request.
func buildRequest(folder, tiers, mode string) (session.Request, error) {
	return session.ParseRequest(folder, tiers, mode)
}

// startSession opens a sorter window and starts a controller on it.
func (a *App) startSession(req session.Request) error {
	if a.sorter != nil {
		return fmt.Errorf("a session is already running")
	}

	s := newSorterWindow(a, req)
	ctrl := session.New(a.cfg, session.Deps{
		Images:   decode.NewImages(),
		Videos:   decode.NewFFmpeg(a.cfg.Playback.FFmpegPath, a.cfg.Playback.FFprobePath, a.cfg.Display.MaxWidth, a.cfg.Display.MaxHeight),
		Surface:  s,
		Notifier: s,
	})
	s.ctrl = ctrl
	a.sorter = s

	s.window.Show()
	a.mainWindow.Hide()

	if err := ctrl.Start(a.ctx, req); err != nil {
		s.dispose()
		return err
	}
	return nil
}

// sessionEnded returns to the setup window.
func (a *App) sessionEnded(s *sorterWindow) {
	if a.sorter == s {
		a.sorter = nil
	}
	a.mainWindow.Show()
	a.refreshPreview()
}

// ShowError displays an error message
func (a *App) ShowError(message string, err error) {
	log.LogWithError(err).Error(message)
	dialog.ShowError(fmt.Errorf("%s: %w", message, err), a.mainWindow)
}

// ShowInfo displays an information message
func (a *App) ShowInfo(message string) {
	log.Info("%s", message)
	dialog.ShowInformation("Tier Sort", message, a.mainWindow)
}

// showNotification shows a desktop notification
func (a *App) showNotification(title, message string) {
	if a.fyneApp != nil {
		a.fyneApp.SendNotification(fyne.NewNotification(title, message))
	}
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}
