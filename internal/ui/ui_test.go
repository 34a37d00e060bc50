package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/readtext/internal/pipeline"
)

type fakeControls struct {
	stops   int
	toggles int
}

func (f *fakeControls) Stop()             { f.stops++ }
func (f *fakeControls) TogglePause() bool { f.toggles++; return true }

func TestStatus_Progress(t *testing.T) {
	s := NewStatus(4)
	if s.State() != StateStarting || s.Progress() != 0 {
		t.Fatalf("Unexpected initial status %v %v", s.State(), s.Progress())
	}

	s.Apply(pipeline.Event{Kind: pipeline.EventSynthesized, Index: 0})
	s.Apply(pipeline.Event{Kind: pipeline.EventSynthesized, Index: 1})
	s.Apply(pipeline.Event{Kind: pipeline.EventPlaying, Index: 0, Text: "first line\nsecond"})
	s.Apply(pipeline.Event{Kind: pipeline.EventSynthesized, Index: 2})

	if s.State() != StatePlaying {
		t.Errorf("Expected playing, got %v", s.State())
	}
	if s.Buffered() != 2 {
		t.Errorf("Expected 2 chunks buffered, got %d", s.Buffered())
	}
	compact := s.CompactStatus()
	if !strings.Contains(compact, "▶") || !strings.Contains(compact, "1/4") {
		t.Errorf("Expected play icon and counter, got %q", compact)
	}
	if detail := s.DetailedStatus(60); !strings.Contains(detail, "first line") || strings.Contains(detail, "second") {
		t.Errorf("Expected only the first line of the chunk, got %q", detail)
	}

	s.Apply(pipeline.Event{Kind: pipeline.EventPaused, Index: -1})
	if s.State() != StatePaused || !strings.Contains(s.CompactStatus(), "⏸") {
		t.Errorf("Expected paused, got %v", s.State())
	}
	s.Apply(pipeline.Event{Kind: pipeline.EventResumed, Index: -1})

	s.Apply(pipeline.Event{Kind: pipeline.EventPlaying, Index: 3})
	s.Apply(pipeline.Event{Kind: pipeline.EventPlayed, Index: 3})
	if s.Progress() != 1 {
		t.Errorf("Expected full progress, got %v", s.Progress())
	}
	s.Finish(nil)
	if s.State() != StateDone {
		t.Errorf("Expected done, got %v", s.State())
	}
}

func TestStatus_Error(t *testing.T) {
	s := NewStatus(1)
	s.Finish(errors.New(strings.Repeat("engine unreachable ", 10)))

	if s.State() != StateError {
		t.Fatalf("Expected error state, got %v", s.State())
	}
	detail := s.DetailedStatus(40)
	if !strings.Contains(detail, "Error: engine unreachable") || !strings.Contains(detail, "...") {
		t.Errorf("Expected truncated error, got %q", detail)
	}

	s.Stopping()
	if s.State() != StateError {
		t.Error("Stopping must not hide a finished state")
	}
}

func TestModel_Keys(t *testing.T) {
	controls := &fakeControls{}
	var m tea.Model = New(controls, "paper.tex", 3)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if controls.toggles != 1 {
		t.Errorf("Expected space to toggle pause, got %d", controls.toggles)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if controls.stops != 1 {
		t.Errorf("Expected q to stop the read, got %d", controls.stops)
	}
	if cmd != nil {
		t.Error("Expected the view to wait for the read to return")
	}
	if m.(Model).Status().State() != StateStopping {
		t.Errorf("Expected stopping, got %v", m.(Model).Status().State())
	}

	m, cmd = m.Update(DoneMsg{})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if strings.Contains(m.View(), "q: stop") {
		t.Error("Help should be hidden when done")
	}
}

func TestModel_Events(t *testing.T) {
	m := New(&fakeControls{}, "stdin", 2)
	var model tea.Model = m

	model, _ = model.Update(tea.WindowSizeMsg{Width: 50, Height: 10})
	model, _ = model.Update(EventMsg{Kind: pipeline.EventPlaying, Index: 0, Text: "hello"})

	view := model.View()
	if !strings.Contains(view, "stdin") || !strings.Contains(view, "1/2") {
		t.Errorf("Unexpected view %q", view)
	}

	failure := errors.New("boom")
	model, _ = model.Update(DoneMsg{Err: failure})
	if model.(Model).Err() != failure {
		t.Errorf("Expected read error to be kept, got %v", model.(Model).Err())
	}
}
