package tui

import (
	"context"
	"image"
	"strconv"

	"tiersort/internal/config"
	"tiersort/internal/decode"
	"tiersort/internal/log"
	"tiersort/internal/media"
	"tiersort/internal/session"
	"tiersort/internal/tui/common"
	"tiersort/internal/tui/components"
	"tiersort/internal/tui/messages"
	"tiersort/internal/tui/views"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Tier key.Binding
	Help key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Tier: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "move to tier"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// chromeRows is the terminal height taken by everything but the picture.
const chromeRows = 8

// Model is the terminal front end of one sorting session.
type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	req    session.Request
	bridge *bridge

	phase    common.Phase
	status   *components.StatusBar
	img      image.Image
	frame    string
	item     media.WorkItem
	current  bool
	stats    session.Stats
	showHelp bool
	width    int
	height   int
	err      error
}

// New builds a model for req. send delivers messages to the running
// program; it is called from session goroutines.
func New(ctx context.Context, cfg *config.Config, req session.Request, send func(tea.Msg)) *Model {
	b := newBridge(send)
	ctrl := session.New(cfg, session.Deps{
		Images:   decode.NewImages(),
		Videos:   decode.NewFFmpeg(cfg.Playback.FFmpegPath, cfg.Playback.FFprobePath, cfg.Display.MaxWidth, cfg.Display.MaxHeight),
		Surface:  b,
		Notifier: b,
	})
	status := components.NewStatusBar()
	status.SetText("Loading " + req.Source)
	status.SetLoading(true)
	return &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		req:    req,
		bridge: b,
		phase:  common.Starting,
		status: status,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.status.Tick(), m.start)
}

func (m *Model) start() tea.Msg {
	return messages.SessionStartedMsg{Error: m.ctrl.Start(m.ctx, m.req)}
}

func (m *Model) close() tea.Msg {
	m.ctrl.Close()
	return messages.SessionClosedMsg{Stats: m.ctrl.Stats()}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.render()

	case messages.SessionStartedMsg:
		if msg.Error != nil {
			log.LogWithError(msg.Error).Error("Session failed to start")
			m.err = msg.Error
			m.status.SetLoading(false)
			m.status.SetError(msg.Error.Error())
			m.phase = common.Finished
			m.bridge.stop()
			return m, tea.Quit
		}
		if m.phase == common.Starting {
			m.phase = common.Sorting
		}

	case messages.ItemShownMsg:
		m.status.SetLoading(false)
		m.item, m.current, m.stats = msg.Item, true, msg.Stats
		m.status.SetText("")

	case messages.FrameMsg:
		m.img = msg.Image
		m.render()

	case messages.ErrorMsg:
		m.status.SetError(msg.Err.Error())

	case messages.WarningMsg:
		m.status.SetError("warning: " + msg.Err.Error())

	case messages.SessionCompleteMsg:
		m.finish(msg.Stats)

	case messages.SessionClosedMsg:
		m.finish(msg.Stats)
		return m, tea.Quit

	default:
		return m, m.status.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		switch m.phase {
		case common.Finished:
			return m, tea.Quit
		case common.Closing:
			return m, nil
		}
		m.phase = common.Closing
		m.bridge.stop()
		m.status.SetText("Stopping...")
		return m, m.close

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.Tier):
		if m.phase != common.Sorting {
			return m, nil
		}
		n, _ := strconv.Atoi(msg.String())
		tiers := m.Tiers()
		if n < 1 || n > len(tiers) {
			return m, nil
		}
		if err := m.ctrl.SelectTier(tiers[n-1]); err != nil {
			m.status.SetError(err.Error())
		}

	default:
		if m.phase == common.Finished {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) finish(stats session.Stats) {
	m.bridge.stop()
	m.phase = common.Finished
	m.stats = stats
	m.current = false
	m.img, m.frame = nil, ""
	m.status.SetLoading(false)
	m.status.SetText("Press any key to exit")
}

func (m *Model) render() {
	rows := m.height - chromeRows
	m.frame = components.RenderFrame(m.img, m.width-4, rows)
}

// View implements tea.Model
func (m *Model) View() string {
	return views.RenderMainView(m)
}

func (m *Model) Phase() common.Phase          { return m.phase }
func (m *Model) Frame() string                { return m.frame }
func (m *Model) Item() (media.WorkItem, bool) { return m.item, m.current }
func (m *Model) Stats() session.Stats         { return m.stats }
func (m *Model) ShowHelp() bool               { return m.showHelp }
func (m *Model) Width() int                   { return m.width }

func (m *Model) Status() (string, bool) {
	if m.status.Loading() {
		return m.status.View(), false
	}
	return m.status.Text()
}

// Tiers returns the session's tiers in key order.
func (m *Model) Tiers() []string {
	return media.CleanTiers(m.req.Tiers)
}

// Run sorts req in the terminal until the session ends or the user quits,
// returning the final counts.
func Run(ctx context.Context, cfg *config.Config, req session.Request) (session.Stats, error) {
	var p *tea.Program
	m := New(ctx, cfg, req, func(msg tea.Msg) { p.Send(msg) })
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	m.bridge.stop()
	m.ctrl.Close()
	if err != nil {
		return m.ctrl.Stats(), err
	}
	return m.ctrl.Stats(), m.err
}
