package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/neuropong/internal/core"
	"github.com/vovakirdan/neuropong/internal/pong"
	"github.com/vovakirdan/neuropong/internal/session"
)

// footerRows is the number of rows under the board for status and help.
const footerRows = 2

// Options configures the session host.
type Options struct {
	Runtime       core.RuntimeConfig
	StepsPerFrame int    // Simulation ticks per rendered frame, at least 1
	Title         string // Shown in the footer
}

// Model is the Bubble Tea model hosting a simulation session.
type Model struct {
	sess     *session.Session
	input    *session.InputFlags
	status   *StatusLog
	screen   *core.Screen
	keys     KeyMap
	help     help.Model
	opts     Options
	paused   bool
	quitting bool
	err      error
}

// NewModel creates a host for sess. input and status must be the same values
// the session was built with (its InputProvider and one of its event sinks).
func NewModel(sess *session.Session, input *session.InputFlags, status *StatusLog, opts Options) Model {
	if opts.StepsPerFrame < 1 {
		opts.StepsPerFrame = 1
	}
	if status == nil {
		status = NewStatusLog()
	}
	return Model{
		sess:   sess,
		input:  input,
		status: status,
		screen: core.NewScreen(opts.Runtime.ScreenW, max(1, opts.Runtime.ScreenH-footerRows)),
		keys:   DefaultKeyMap(),
		help:   help.New(),
		opts:   opts,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.opts.Runtime.ScreenW = msg.Width
		m.opts.Runtime.ScreenH = msg.Height
		m.screen.Resize(msg.Width, max(1, msg.Height-footerRows))
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input. Terminals report presses only, so
// movement flags are raised here and released after the next tick.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	switch m.keys.MapKey(msg) {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionPause:
		m.paused = !m.paused
	case core.ActionReset:
		m.sess.ResetScores()
	case core.ActionUp:
		if m.input != nil {
			m.input.SetUp(true)
		}
	case core.ActionDown:
		if m.input != nil {
			m.input.SetDown(true)
		}
	}
	return m, nil
}

// handleTick advances the session and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if !m.paused {
		for i := 0; i < m.opts.StepsPerFrame; i++ {
			if err := m.sess.Step(); err != nil {
				if !errors.Is(err, session.ErrClosed) {
					m.err = err
				}
				m.quitting = true
				return m, tea.Quit
			}
		}
	}

	// Clear input for next frame
	if m.input != nil {
		m.input.Release()
	}
	return m, tickCmd(m.opts.Runtime.TickRate)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	pong.Render(m.sess.Snapshot(), m.screen)
	if m.paused {
		drawCenteredMessage(m.screen, "PAUSED", "Press P to resume")
	}

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	status := m.opts.Title
	if msg := m.status.Message(); msg != "" {
		status = fmt.Sprintf("%s  |  %s", status, msg)
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Err returns the error that stopped the host, if any.
func (m Model) Err() error {
	return m.err
}

// drawCenteredMessage draws a message box in the center of the screen.
func drawCenteredMessage(dst *core.Screen, title, subtitle string) {
	boxW := max(len(title), len(subtitle)) + 4
	boxH := 5
	boxX := (dst.Width() - boxW) / 2
	boxY := (dst.Height() - boxH) / 2

	dst.DrawRect(core.NewRect(boxX, boxY, boxW, boxH), ' ')
	dst.DrawBox(core.NewRect(boxX, boxY, boxW, boxH))
	dst.DrawTextCentered(boxY+1, title)
	dst.DrawTextCentered(boxY+3, subtitle)
}

// Run hosts the session until the user quits or ctx is cancelled.
// It does not close the session.
func Run(ctx context.Context, sess *session.Session, input *session.InputFlags, status *StatusLog, opts Options) error {
	model := NewModel(sess, input, status, opts)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return fmt.Errorf("tui: %w", m.Err())
	}
	return nil
}
