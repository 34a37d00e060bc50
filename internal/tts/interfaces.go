package tts

import "context"

// Synthesizer converts text to audio.
// Implementations include VOICEVOX (HTTP) and eSpeak (subprocess).
type Synthesizer interface {
	// Name identifies the engine in logs, errors and cache keys.
	Name() string

	// Synthesize converts one chunk of text to WAV audio.
	// Blank text is a caller error and fails before any I/O.
	Synthesize(ctx context.Context, text string, opts Options) (AudioPayload, error)

	// Available probes the backend. It never fails, it only reports.
	Available(ctx context.Context) bool
}

// Player plays synthesized audio.
type Player interface {
	// Play blocks until the audio has played, ctx is done, or Halt is called.
	Play(ctx context.Context, wav []byte) error

	// Halt makes an in-flight Play return promptly. It is safe to call when
	// nothing is playing.
	Halt()
}
