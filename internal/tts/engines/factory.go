package engines

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// Config holds the settings of every engine. New picks the one it needs.
type Config struct {
	Voicevox VoicevoxConfig
	Espeak   EspeakConfig
}

// Names lists the supported engines.
func Names() []string {
	return []string{VoicevoxName, EspeakName, MockName}
}

// New creates the named engine.
func New(name string, config Config) (tts.Synthesizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VoicevoxName:
		return NewVoicevox(config.Voicevox)
	case EspeakName:
		return NewEspeak(config.Espeak)
	case MockName:
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", tts.ErrUnknownEngine, name, strings.Join(Names(), ", "))
	}
}
