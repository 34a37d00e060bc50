package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/readtext/internal/tts"
)

type mockSynth struct {
	mu         sync.Mutex
	calls      []string
	shouldFail bool
	failOn     int // 1-based call number that fails, 0 for none
	delay      time.Duration
}

func (m *mockSynth) Name() string { return "mock" }

func (m *mockSynth) Available(context.Context) bool { return true }

func (m *mockSynth) Synthesize(ctx context.Context, text string, _ tts.Options) (tts.AudioPayload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	n := len(m.calls)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return tts.AudioPayload{}, ctx.Err()
		}
	}
	if m.shouldFail || (m.failOn > 0 && n == m.failOn) {
		return tts.AudioPayload{}, errors.New("Synthesis failed")
	}
	return tts.WAV([]byte(text)), nil
}

func (m *mockSynth) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockPlayer struct {
	mu         sync.Mutex
	played     []string
	shouldFail bool
	delay      time.Duration
	halted     int
	halt       chan struct{}
}

func newMockPlayer() *mockPlayer {
	return &mockPlayer{halt: make(chan struct{})}
}

func (m *mockPlayer) Play(ctx context.Context, wav []byte) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		case <-m.haltCh():
			return errors.New("halted")
		}
	}
	if m.shouldFail {
		return errors.New("Playback failed")
	}
	m.mu.Lock()
	m.played = append(m.played, string(wav))
	m.mu.Unlock()
	return nil
}

func (m *mockPlayer) haltCh() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halt
}

func (m *mockPlayer) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted++
	close(m.halt)
	m.halt = make(chan struct{})
}

func (m *mockPlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestController_PlaysAllChunksInOrder(t *testing.T) {
	synth := &mockSynth{}
	player := newMockPlayer()
	c := New(synth, player, WithMaxBufferSize(2))

	chunks := []string{"one", "two", "three"}
	if err := c.Run(context.Background(), chunks, tts.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := player.Played(); !equal(got, chunks) {
		t.Errorf("Played %v, want %v", got, chunks)
	}
	if c.IsActive() {
		t.Error("Controller should be idle after Run")
	}
}

func TestController_SkipsBlankChunks(t *testing.T) {
	synth := &mockSynth{}
	c := New(synth, newMockPlayer(), WithMaxBufferSize(2))

	if err := c.Run(context.Background(), []string{"text1", "   ", "text2", ""}, tts.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := synth.Calls(); !equal(got, []string{"text1", "text2"}) {
		t.Errorf("Synthesize calls %v", got)
	}
}

func TestController_EmptyInput(t *testing.T) {
	synth := &mockSynth{}
	player := newMockPlayer()
	c := New(synth, player)

	if err := c.Run(context.Background(), nil, tts.Options{}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(synth.Calls()) != 0 || len(player.Played()) != 0 {
		t.Error("Expected no work for empty input")
	}
}

func TestController_RejectsConcurrentRun(t *testing.T) {
	synth := &mockSynth{delay: 20 * time.Millisecond}
	c := New(synth, newMockPlayer(), WithMaxBufferSize(2))

	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), []string{"a", "b", "c"}, tts.Options{})
	}()

	waitFor(t, c.IsActive)

	if err := c.Run(context.Background(), []string{"x"}, tts.Options{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	for _, call := range synth.Calls() {
		if call == "x" {
			t.Error("Rejected run must not synthesize")
		}
	}
}

func TestController_SynthesisErrorFailsRun(t *testing.T) {
	synth := &mockSynth{failOn: 2}
	player := newMockPlayer()
	c := New(synth, player, WithMaxBufferSize(2))

	err := c.Run(context.Background(), []string{"a", "b", "c"}, tts.Options{})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !tts.IsSynthesis(err) {
		t.Errorf("Expected synthesis error, got %v", err)
	}
	if got := err.Error(); got != "mock synthesis failed: Synthesis failed" {
		t.Errorf("Unexpected message %q", got)
	}
	if n := len(synth.Calls()); n != 2 {
		t.Errorf("Generator should stop at the failure, got %d calls", n)
	}
	if c.IsActive() {
		t.Error("Controller should be idle after failure")
	}
}

func TestController_PlaybackErrorFailsRun(t *testing.T) {
	player := newMockPlayer()
	player.shouldFail = true
	c := New(&mockSynth{}, player, WithMaxBufferSize(2))

	err := c.Run(context.Background(), []string{"a", "b", "c", "d"}, tts.Options{})
	if !tts.IsPlayback(err) {
		t.Fatalf("Expected playback error, got %v", err)
	}
	if c.IsActive() {
		t.Error("Controller should be idle after failure")
	}

	// The controller is reusable after a failure.
	player.shouldFail = false
	if err := c.Run(context.Background(), []string{"again"}, tts.Options{}); err != nil {
		t.Errorf("Second run failed: %v", err)
	}
}

func TestController_StopMidRun(t *testing.T) {
	synth := &mockSynth{delay: 50 * time.Millisecond}
	player := newMockPlayer()
	player.delay = 50 * time.Millisecond
	c := New(synth, player, WithMaxBufferSize(2))

	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), []string{"1", "2", "3", "4", "5"}, tts.Options{})
	}()

	time.Sleep(80 * time.Millisecond)
	c.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stopped run should not fail, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	if n := len(synth.Calls()); n >= 5 {
		t.Errorf("Expected fewer than 5 synthesis calls, got %d", n)
	}
	if c.IsActive() {
		t.Error("Controller should be idle after Stop")
	}
	if player.halted != 1 {
		t.Errorf("Expected one halt, got %d", player.halted)
	}
}

func TestController_StopWhenIdle(t *testing.T) {
	player := newMockPlayer()
	c := New(&mockSynth{}, player)
	c.Stop()
	if c.IsActive() || player.halted != 0 {
		t.Error("Stop on an idle controller should do nothing")
	}
}

func TestController_ContextCancel(t *testing.T) {
	synth := &mockSynth{delay: 30 * time.Millisecond}
	c := New(synth, newMockPlayer())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Run(ctx, []string{"1", "2", "3", "4", "5", "6"}, tts.Options{}); err != nil {
		t.Errorf("Canceled run should not fail, got %v", err)
	}
	if n := len(synth.Calls()); n >= 6 {
		t.Errorf("Expected the run to stop early, got %d calls", n)
	}
}

func TestController_Backpressure(t *testing.T) {
	synth := &mockSynth{}
	player := newMockPlayer()
	player.delay = 40 * time.Millisecond
	c := New(synth, player, WithMaxBufferSize(1))

	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), []string{"1", "2", "3", "4", "5", "6"}, tts.Options{})
	}()

	// One chunk playing, one buffered, one waiting to be pushed at most.
	time.Sleep(20 * time.Millisecond)
	if n := len(synth.Calls()); n > 3 {
		t.Errorf("Generator ran ahead of the buffer: %d calls", n)
	}

	c.Stop()
	<-done
}

func TestController_PauseResume(t *testing.T) {
	player := newMockPlayer()
	c := New(&mockSynth{}, player)

	if c.Pause() || c.Resume() || c.IsPaused() {
		t.Fatal("Pause and Resume must return false when idle")
	}

	player.delay = 20 * time.Millisecond
	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), []string{"1", "2", "3"}, tts.Options{})
	}()

	waitFor(t, c.IsActive)
	if !c.Pause() {
		t.Fatal("Pause should succeed while running")
	}
	if c.Pause() {
		t.Error("Second Pause should return false")
	}
	if !c.IsPaused() {
		t.Error("IsPaused should be true")
	}

	time.Sleep(100 * time.Millisecond)
	if n := len(player.Played()); n > 1 {
		t.Errorf("Paused run kept playing: %d chunks", n)
	}

	if !c.Resume() {
		t.Fatal("Resume should succeed while paused")
	}
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := player.Played(); !equal(got, []string{"1", "2", "3"}) {
		t.Errorf("Played %v", got)
	}
}

func TestController_StopReleasesPause(t *testing.T) {
	player := newMockPlayer()
	player.delay = 10 * time.Millisecond
	c := New(&mockSynth{}, player)

	done := make(chan error, 1)
	go func() {
		done <- c.Run(context.Background(), []string{"1", "2", "3"}, tts.Options{})
	}()

	waitFor(t, c.IsActive)
	c.Pause()
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not release a paused run")
	}
}

func TestController_Observer(t *testing.T) {
	var mu sync.Mutex
	var kinds []EventKind
	c := New(&mockSynth{}, newMockPlayer(), WithObserver(func(e Event) {
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	}))

	if err := c.Run(context.Background(), []string{"only"}, tts.Options{}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []EventKind{EventSynthesized, EventPlaying, EventPlayed}
	if len(kinds) != len(want) {
		t.Fatalf("events %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met")
}
