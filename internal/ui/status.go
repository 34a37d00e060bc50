package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/readtext/internal/pipeline"
)

// State is what the status view shows for the read.
type State int

const (
	StateStarting State = iota
	StatePlaying
	StatePaused
	StateStopping
	StateDone
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	colorPlaying  = lipgloss.Color("#00FF00")
	colorPaused   = lipgloss.Color("#FFFF00")
	colorStarting = lipgloss.Color("#00AAFF")
	colorStopping = lipgloss.Color("#FF8800")
	colorError    = lipgloss.Color("#FF0000")
	colorDim      = lipgloss.Color("#888888")
	colorTrack    = lipgloss.Color("#333333")
)

// Status tracks read progress from pipeline events.
type Status struct {
	state       State
	current     int
	total       int
	synthesized int
	text        string
	started     time.Time
	elapsed     time.Duration
	err         string
}

// NewStatus creates a status for a read of total chunks.
func NewStatus(total int) *Status {
	return &Status{state: StateStarting, current: -1, total: total}
}

// Apply updates the status from a pipeline event.
func (s *Status) Apply(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventSynthesized:
		if e.Index+1 > s.synthesized {
			s.synthesized = e.Index + 1
		}
	case pipeline.EventPlaying:
		if s.started.IsZero() {
			s.started = time.Now()
		}
		s.state = StatePlaying
		s.current = e.Index
		s.text = e.Text
	case pipeline.EventPlayed:
		if e.Index+1 == s.total {
			s.current = s.total
		}
	case pipeline.EventPaused:
		s.state = StatePaused
	case pipeline.EventResumed:
		s.state = StatePlaying
	}
}

// Finish marks the read as done, or failed when err is set.
func (s *Status) Finish(err error) {
	if !s.started.IsZero() {
		s.elapsed = time.Since(s.started)
	}
	if err != nil {
		s.state = StateError
		s.err = err.Error()
		return
	}
	s.state = StateDone
}

// Stopping marks a stop request.
func (s *Status) Stopping() {
	if s.state != StateDone && s.state != StateError {
		s.state = StateStopping
	}
}

// State returns the current state.
func (s *Status) State() State { return s.state }

// Progress is the fraction of chunks played.
func (s *Status) Progress() float64 {
	if s.total <= 0 || s.current < 0 {
		return 0
	}
	p := float64(s.current) / float64(s.total)
	if p > 1 {
		p = 1
	}
	return p
}

// Buffered is the number of chunks synthesized ahead of playback.
func (s *Status) Buffered() int {
	ahead := s.synthesized - s.current - 1
	if ahead < 0 || s.current >= s.total {
		return 0
	}
	return ahead
}

// CompactStatus returns a one-line status.
func (s *Status) CompactStatus() string {
	style := lipgloss.NewStyle().Foreground(s.color())
	status := style.Render(fmt.Sprintf("%s %s", s.icon(), s.state))

	if s.total > 0 && s.current >= 0 {
		n := s.current + 1
		if n > s.total {
			n = s.total
		}
		status += lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf(" %d/%d", n, s.total))
	}
	if b := s.Buffered(); b > 0 && s.state == StatePlaying {
		status += lipgloss.NewStyle().Foreground(colorStarting).Render(fmt.Sprintf(" +%d", b))
	}
	return status
}

// DetailedStatus returns the multi-line status panel.
func (s *Status) DetailedStatus(width int) string {
	var lines []string
	lines = append(lines, s.CompactStatus())

	if s.total > 0 && width > 20 {
		lines = append(lines, s.renderProgressBar(width-4))
	}

	if s.text != "" && (s.state == StatePlaying || s.state == StatePaused) {
		first := strings.SplitN(strings.TrimSpace(s.text), "\n", 2)[0]
		lines = append(lines, lipgloss.NewStyle().Foreground(colorDim).Render(
			truncate.StringWithTail(first, uint(max(width-2, 10)), "..."), //nolint:gosec
		))
	}

	if s.state == StateDone && s.elapsed > 0 {
		lines = append(lines, fmt.Sprintf("Read %d chunks in %s", s.total, formatDuration(s.elapsed)))
	}

	if s.err != "" {
		msg := truncate.StringWithTail(s.err, uint(max(width-9, 10)), "...") //nolint:gosec
		lines = append(lines, lipgloss.NewStyle().Foreground(colorError).Render("Error: "+msg))
	}

	return strings.Join(lines, "\n")
}

func (s *Status) renderProgressBar(width int) string {
	if width < 10 {
		return ""
	}
	filled := int(s.Progress() * float64(width))
	if filled > width {
		filled = width
	}
	return lipgloss.NewStyle().Foreground(s.color()).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colorTrack).Render(strings.Repeat("░", width-filled))
}

func (s *Status) color() lipgloss.Color {
	switch s.state {
	case StatePlaying, StateDone:
		return colorPlaying
	case StatePaused:
		return colorPaused
	case StateStarting:
		return colorStarting
	case StateStopping:
		return colorStopping
	case StateError:
		return colorError
	default:
		return colorDim
	}
}

func (s *Status) icon() string {
	switch s.state {
	case StatePlaying:
		return "▶"
	case StatePaused:
		return "⏸"
	case StateStarting:
		return "⟳"
	case StateStopping:
		return "◼"
	case StateDone:
		return "✓"
	case StateError:
		return "✗"
	default:
		return "○"
	}
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
