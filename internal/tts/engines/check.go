package engines

import (
	"context"
	"time"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// CheckResult reports whether an engine can be used.
type CheckResult struct {
	Engine    string
	Available bool
	Latency   time.Duration

	// Guidance gives setup instructions when the engine is unavailable
	Guidance string
}

// Check probes synth and attaches setup guidance on failure.
func Check(ctx context.Context, synth tts.Synthesizer) CheckResult {
	start := time.Now()
	ok := synth.Available(ctx)
	result := CheckResult{
		Engine:    synth.Name(),
		Available: ok,
		Latency:   time.Since(start),
	}
	if !ok {
		result.Guidance = Guidance(synth.Name())
	}
	return result
}

// Unavailable wraps a failed check as an error.
func (r CheckResult) Unavailable() error {
	return tts.NewError(tts.CodeUnavailable, r.Engine+" is not available", nil).
		WithContext("engine", r.Engine).
		WithContext("guidance", r.Guidance)
}

// Guidance returns setup instructions for an engine.
func Guidance(name string) string {
	switch name {
	case VoicevoxName:
		return `The VOICEVOX engine is not reachable. To start it:

1. Run the engine with Docker:
   docker run --rm -p 50021:50021 voicevox/voicevox_engine:cpu-latest

   Or download the app from https://voicevox.hiroshiba.jp/ and start it.

2. Check that it answers:
   curl http://localhost:50021/version

3. If it runs elsewhere, set the URL in the config file:
   voicevox:
     url: http://host:50021`

	case EspeakName:
		return `eSpeak is not installed. To install:

# Ubuntu/Debian
sudo apt install espeak-ng

# Fedora
sudo dnf install espeak-ng

# macOS (Homebrew)
brew install espeak-ng

For espeak-ng, set the command in the config file:
  espeak:
    command: espeak-ng`

	default:
		return "Supported engines: voicevox, espeak, mock"
	}
}
