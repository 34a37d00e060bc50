package cache

import (
	"context"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// Synthesizer caches the audio of another synthesizer. Failures are never
// cached.
type Synthesizer struct {
	next    tts.Synthesizer
	manager *Manager
	speed   float64
	pitch   float64
	voice   string
}

// NewSynthesizer wraps next. speed, pitch and voice are the engine defaults
// used to key calls that leave Options unset.
func NewSynthesizer(next tts.Synthesizer, manager *Manager, speed, pitch float64, voice string) *Synthesizer {
	return &Synthesizer{next: next, manager: manager, speed: speed, pitch: pitch, voice: voice}
}

// Name returns the wrapped engine's name.
func (s *Synthesizer) Name() string { return s.next.Name() }

// Available delegates to the wrapped engine.
func (s *Synthesizer) Available(ctx context.Context) bool { return s.next.Available(ctx) }

// Synthesize returns cached audio or synthesizes and stores it.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.Options) (tts.AudioPayload, error) {
	key := Key{
		Engine: s.next.Name(),
		Voice:  opts.VoiceOr(s.voice),
		Speed:  opts.SpeedOr(s.speed),
		Pitch:  opts.PitchOr(s.pitch),
		Text:   text,
	}.String()

	if data, ok := s.manager.Get(key); ok {
		return tts.WAV(data), nil
	}

	payload, err := s.next.Synthesize(ctx, text, opts)
	if err != nil {
		return payload, err
	}
	// A cache write failure does not fail the read.
	_ = s.manager.Put(key, payload.Data)
	return payload, nil
}
