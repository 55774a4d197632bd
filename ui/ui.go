package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicelink/pkg/voice"
)

// refreshInterval is the display poll cadence. The meter samples on
// its own clock; the UI just reads the latest value.
const refreshInterval = 50 * time.Millisecond

type tickMsg time.Time

// connectResultMsg reports the outcome of an async connect attempt.
type connectResultMsg struct {
	err error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AD58B4")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

// Model is the top-level bubbletea model: one session, one status
// panel, a handful of keys.
type Model struct {
	session    *voice.Session
	display    *StatusDisplay
	width      int
	height     int
	connecting bool
	quitting   bool
}

// NewModel creates the UI over a session.
func NewModel(session *voice.Session) Model {
	return Model{
		session: session,
		display: NewStatusDisplay(),
	}
}

// NewProgram builds the bubbletea program around the model.
func NewProgram(session *voice.Session) *tea.Program {
	return tea.NewProgram(NewModel(session), tea.WithAltScreen())
}

// Init starts the display refresh loop.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// connectCmd runs the blocking connect off the UI loop.
func (m Model) connectCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return connectResultMsg{err: session.Connect(ctx)}
	}
}

// Update handles key presses and the refresh tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			m.session.Disconnect()
			return m, tea.Quit

		case "c", "enter":
			if m.connecting || m.session.IsActive() {
				return m, nil
			}
			m.connecting = true
			return m, m.connectCmd()

		case "d":
			m.session.Disconnect()
			return m, nil
		}

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			log.Error("Connect failed", "error", msg.err)
		}
		return m, nil

	case tickMsg:
		m.display.Update(m.session.Status(), m.session.Volume(), m.session.LastError())
		if m.quitting {
			return m, nil
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

// View renders the status panel and key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 60
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("voicelink"))
	b.WriteString("\n")
	b.WriteString(m.display.DetailedStatus(width))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	switch {
	case m.connecting:
		return "connecting… • q: quit"
	case m.session.IsActive():
		return "d: disconnect • q: quit"
	default:
		return "c: connect • q: quit"
	}
}

// Run wires a session from configuration and blocks until the UI
// exits. The session is always torn down before returning.
func Run(cfg *voice.Config) error {
	mode := voice.DeviceAuto
	if cfg.Audio.MockDevices {
		mode = voice.DeviceMock
	}

	session := voice.NewSession(cfg.SessionConfig(), voice.Options{
		Dialer:        voice.WSDialer{},
		NewOutput:     func() (voice.OutputContext, error) { return voice.NewOutputContextFor(mode) },
		NewInput:      func() voice.InputDevice { return voice.NewInputDeviceFor(mode) },
		QueueSize:     cfg.Audio.QueueSize,
		MeterInterval: time.Duration(cfg.Audio.MeterIntervalMS) * time.Millisecond,
	})
	defer session.Disconnect()

	if _, err := NewProgram(session).Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
