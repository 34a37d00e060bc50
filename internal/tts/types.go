package tts

import (
	"fmt"
	"math"
	"strings"
)

// Format is the encoding of an AudioPayload.
type Format string

// FormatWAV is the only payload format produced by the engines.
const FormatWAV Format = "wav"

// AudioPayload is the audio for one chunk.
type AudioPayload struct {
	Data   []byte
	Format Format
}

// WAV wraps data as a WAV payload.
func WAV(data []byte) AudioPayload {
	return AudioPayload{Data: data, Format: FormatWAV}
}

// Speed and pitch limits.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
	MinPitch = -1.0
	MaxPitch = 1.0
)

// Options tune one synthesis call. Zero values select the engine's
// configured defaults.
type Options struct {
	Speed float64
	Pitch *float64
	Voice string
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.Speed != 0 && (o.Speed < MinSpeed || o.Speed > MaxSpeed || math.IsNaN(o.Speed)) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, o.Speed)
	}
	if o.Pitch != nil && (*o.Pitch < MinPitch || *o.Pitch > MaxPitch || math.IsNaN(*o.Pitch)) {
		return fmt.Errorf("%w: %v", ErrInvalidPitch, *o.Pitch)
	}
	return nil
}

// SpeedOr returns the speed, or def when unset.
func (o Options) SpeedOr(def float64) float64 {
	if o.Speed == 0 {
		return def
	}
	return o.Speed
}

// PitchOr returns the pitch, or def when unset.
func (o Options) PitchOr(def float64) float64 {
	if o.Pitch == nil {
		return def
	}
	return *o.Pitch
}

// VoiceOr returns the voice, or def when unset.
func (o Options) VoiceOr(def string) string {
	if o.Voice == "" {
		return def
	}
	return o.Voice
}

// ValidateText fails with a validation error for blank text.
func ValidateText(engine, text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError(engine, ErrEmptyText)
	}
	return nil
}

// Float returns a pointer to v, for Options.Pitch.
func Float(v float64) *float64 {
	return &v
}
