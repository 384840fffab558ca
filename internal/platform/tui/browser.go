package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/neuropong/internal/storage"
)

// Browser layout constants
const (
	maxBrowserRows = 100
	dateFormat     = "Jan 02 15:04"
)

// BrowserTab selects what the browser lists.
type BrowserTab int

const (
	TabModels BrowserTab = iota
	TabRuns
)

func (t BrowserTab) String() string {
	if t == TabRuns {
		return "Training runs"
	}
	return "Saved models"
}

// BrowserKeyMap defines the key bindings for the browser.
type BrowserKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k BrowserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k BrowserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.NextTab, k.Quit}}
}

// DefaultBrowserKeyMap returns default key bindings.
func DefaultBrowserKeyMap() BrowserKeyMap {
	return BrowserKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "shift+tab", "left", "right"),
			key.WithHelp("tab", "models/runs"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// BrowserModel is the Bubble Tea model listing saved models and training runs.
type BrowserModel struct {
	models   []storage.ModelSummary
	runs     []storage.RunSummary
	tab      BrowserTab
	table    table.Model
	help     help.Model
	keys     BrowserKeyMap
	width    int
	height   int
	quitting bool
}

// NewBrowserModel creates a browser over already loaded listings.
func NewBrowserModel(models []storage.ModelSummary, runs []storage.RunSummary, width, height int) BrowserModel {
	m := BrowserModel{
		models: models,
		runs:   runs,
		keys:   DefaultBrowserKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.updateTableRows()
	return m
}

// createTable creates a table with columns for the current tab.
func (m *BrowserModel) createTable() table.Model {
	var columns []table.Column
	switch m.tab {
	case TabRuns:
		columns = []table.Column{
			{Title: "Run", Width: 10},
			{Title: "Gens", Width: 6},
			{Title: "Best", Width: 8},
			{Title: "Avg", Width: 8},
			{Title: "Started", Width: 14},
			{Title: "Last", Width: 14},
		}
	default:
		columns = []table.Column{
			{Title: "Name", Width: 16},
			{Title: "Saves", Width: 6},
			{Title: "Best", Width: 8},
			{Title: "Net", Width: 8},
			{Title: "Saved", Width: 14},
		}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-8)), // Leave room for header, help, and margins
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// updateTableRows fills the table from the current tab's listing.
func (m *BrowserModel) updateTableRows() {
	var rows []table.Row
	switch m.tab {
	case TabRuns:
		rows = make([]table.Row, len(m.runs))
		for i, r := range m.runs {
			rows[i] = table.Row{
				r.RunID,
				fmt.Sprintf("%d", r.Generations),
				fmt.Sprintf("%.2f", r.BestFitness),
				fmt.Sprintf("%.2f", r.AvgFitness),
				r.Started.Format(dateFormat),
				r.LastUpdate.Format(dateFormat),
			}
		}
	default:
		rows = make([]table.Row, len(m.models))
		for i, s := range m.models {
			rows[i] = table.Row{
				s.Name,
				fmt.Sprintf("%d", s.Count),
				fmt.Sprintf("%.2f", s.BestFitness),
				s.Topology,
				s.LastSaved.Format(dateFormat),
			}
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Rows returns the number of rows on the current tab.
func (m BrowserModel) Rows() int {
	return len(m.table.Rows())
}

// Tab returns the current tab.
func (m BrowserModel) Tab() BrowserTab {
	return m.tab
}

// Init initializes the browser model.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the browser.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.tab = (m.tab + 1) % 2
			m.table = m.createTable()
			m.updateTableRows()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table for scrolling
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the browser.
func (m BrowserModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)
	b.WriteString(titleStyle.Render(centerText(strings.ToUpper(m.tab.String()), m.width)))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(centerText(tableStyle.Render(m.renderTableContent()), m.width))

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or empty message.
func (m BrowserModel) renderTableContent() string {
	if m.Rows() > 0 {
		return m.table.View()
	}
	emptyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Italic(true).
		Padding(2, 4)
	if m.tab == TabRuns {
		return emptyStyle.Render("No training runs recorded yet.\nRun 'neuropong train' to start one!")
	}
	return emptyStyle.Render("No models saved yet.\nA model is saved whenever training sets a new best.")
}

// centerText centers every line of text within width.
func centerText(text string, width int) string {
	if lipgloss.Width(text) >= width {
		return text
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}

// RunBrowser loads the listings from store and runs the browser screen.
func RunBrowser(ctx context.Context, store *storage.Store, width, height int) error {
	models, err := store.ListModels(ctx)
	if err != nil {
		return err
	}
	runs, err := store.Runs(ctx, maxBrowserRows)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		NewBrowserModel(models, runs, width, height),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err = p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
