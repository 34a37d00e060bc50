package engines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/readtext/internal/audio"
	"github.com/dgnsrekt/readtext/internal/tts"
)

// MockName is the engine name used in configuration.
const MockName = "mock"

// mockFormat matches the VOICEVOX output format.
var mockFormat = audio.Format{SampleRate: 24000, Channels: 1}

// Mock produces silent WAV audio whose length follows the word count. It
// needs no external engine and is used for dry runs and tests.
type Mock struct {
	// PerWord is the audio length per word at speed 1.0
	PerWord time.Duration

	// Delay simulates synthesis time
	Delay time.Duration

	mu           sync.Mutex
	calls        []string
	failureError error
}

// NewMock creates a mock engine.
func NewMock() *Mock {
	return &Mock{PerWord: 300 * time.Millisecond}
}

// Name returns "mock".
func (e *Mock) Name() string { return MockName }

// Available always reports true.
func (e *Mock) Available(context.Context) bool { return true }

// SetFailure makes every following Synthesize call fail with err.
func (e *Mock) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failureError = err
}

// Calls returns the texts passed to Synthesize.
func (e *Mock) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// Synthesize returns silence sized to the text.
func (e *Mock) Synthesize(ctx context.Context, text string, opts tts.Options) (tts.AudioPayload, error) {
	if err := tts.ValidateText(MockName, text); err != nil {
		return tts.AudioPayload{}, err
	}

	e.mu.Lock()
	e.calls = append(e.calls, text)
	failure := e.failureError
	e.mu.Unlock()

	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return tts.AudioPayload{}, ctx.Err()
		}
	}
	if failure != nil {
		return tts.AudioPayload{}, tts.NewSynthesisError(MockName, failure)
	}

	words := len(strings.Fields(text))
	d := time.Duration(float64(time.Duration(words)*e.PerWord) / opts.SpeedOr(1.0))
	return tts.WAV(audio.Silence(mockFormat, d)), nil
}
