// Package ui is the terminal status view shown while text is read aloud.
package ui

import (
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"

	"github.com/dgnsrekt/readtext/internal/pipeline"
)

const defaultWidth = 80

// Controls is the part of a reader the view drives.
type Controls interface {
	Stop()
	TogglePause() bool
}

// EventMsg carries a pipeline event into the program.
type EventMsg pipeline.Event

// DoneMsg ends the program once the read has returned.
type DoneMsg struct{ Err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"})
)

// Model is the bubbletea model of the status view.
type Model struct {
	controls Controls
	title    string
	status   *Status
	spinner  spinner.Model
	width    int
	done     bool
	err      error
}

// New creates the view for a read of total chunks titled title.
func New(controls Controls, title string, total int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorStarting)

	return Model{
		controls: controls,
		title:    title,
		status:   NewStatus(total),
		spinner:  sp,
		width:    TerminalWidth(),
	}
}

// Err returns the error the read finished with.
func (m Model) Err() error { return m.err }

// Status returns the tracked status.
func (m Model) Status() *Status { return m.status }

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles keys, pipeline events and the end of the read.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}
			m.status.Stopping()
			m.controls.Stop()
		case " ", "p":
			m.controls.TogglePause()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case EventMsg:
		m.status.Apply(pipeline.Event(msg))
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.status.Finish(msg.Err)
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the status panel.
func (m Model) View() string {
	title := truncate.StringWithTail(m.title, uint(max(m.width-4, 10)), "...") //nolint:gosec

	header := titleStyle.Render(title)
	switch m.status.State() {
	case StateStarting, StatePlaying, StateStopping:
		header = m.spinner.View() + " " + header
	}

	view := header + "\n" + m.status.DetailedStatus(m.width) + "\n"
	if !m.done {
		view += helpStyle.Render("space: pause/resume • q: stop") + "\n"
	}
	return view
}

// TerminalWidth returns the width of stdout, capped at 120 columns, or 80
// when stdout is not a terminal.
func TerminalWidth() int {
	fd := int(os.Stdout.Fd()) //nolint:gosec
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	if w > 120 {
		w = 120
	}
	return w
}

// NewProgram creates the bubbletea program for m.
func NewProgram(m Model, altScreen bool) *tea.Program {
	opts := []tea.ProgramOption{tea.WithOutput(os.Stderr)}
	if altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	return tea.NewProgram(m, opts...)
}
