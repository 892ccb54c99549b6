// Package tui renders sync progress as a single-screen terminal UI
// consuming the engine's event stream.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/docsync/internal/syncengine"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// syncDoneMsg carries the engine result once Sync returns.
type syncDoneMsg struct {
	result *syncengine.Result
}

// Model is the bubble tea model for one sync run.
type Model struct {
	engine *syncengine.Engine
	bridge *EventBridge
	bar    progress.Model

	file    string
	current int
	total   int
	percent int

	result   *syncengine.Result
	fatalMsg string
	done     bool
}

// NewModel creates the model and wires the engine's event stream to it.
func NewModel(engine *syncengine.Engine) Model {
	bridge := NewEventBridge()
	engine.SetEventEmitter(bridge)

	return Model{
		engine: engine,
		bridge: bridge,
		bar:    progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the sync in the background and begins listening for events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startSync(), m.bridge.ListenCmd())
}

func (m Model) startSync() tea.Cmd {
	return func() tea.Msg {
		return syncDoneMsg{result: m.engine.Sync()}
	}
}

// Update handles engine events, completion, and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case SyncEventMsg:
		m.applyEvent(msg.Event)
		return m, m.bridge.ListenCmd()

	case syncDoneMsg:
		m.result = msg.result
		m.done = true
		m.bridge.Close()

		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(event syncengine.Event) {
	switch event := event.(type) {
	case syncengine.DownloadStatus:
		m.file = event.File
		m.current = event.Current
		m.total = event.Total
		m.percent = event.Percent
	case syncengine.DownloadProgress:
		m.file = event.File
		m.percent = event.Percent
	case syncengine.SyncComplete:
		m.percent = 100
	case syncengine.SyncFailed:
		m.fatalMsg = event.Message
	}
}

// View renders the current sync state.
func (m Model) View() string {
	view := titleStyle.Render("docsync") + "\n\n"

	switch {
	case m.fatalMsg != "":
		view += errorStyle.Render("Sync failed: "+m.fatalMsg) + "\n"
	case m.done && m.result != nil:
		view += summaryStyle.Render(m.result.Message) + "\n"
	case m.total > 0:
		view += statusStyle.Render(fmt.Sprintf("Downloading %s (%d/%d)", m.file, m.current, m.total)) + "\n"
		view += m.bar.ViewAs(float64(m.percent)/100) + "\n"
	default:
		view += statusStyle.Render("Checking for updates...") + "\n"
	}

	if !m.done {
		view += "\n" + statusStyle.Render("press q to quit")
	}

	return view
}

// Run drives one sync under the TUI and returns the engine's result.
func Run(engine *syncengine.Engine) (*syncengine.Result, error) {
	p := tea.NewProgram(NewModel(engine))

	final, err := p.Run()
	if err != nil {
		return nil, err
	}

	model, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model type %T", final)
	}

	return model.result, nil
}
