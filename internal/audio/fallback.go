package audio

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// FallbackPlayer plays through a primary player and switches to a secondary
// one when the primary cannot handle the audio.
type FallbackPlayer struct {
	primary   tts.Player
	secondary tts.Player
	logger    *log.Logger

	mu       sync.Mutex
	degraded bool
}

// NewFallbackPlayer creates a FallbackPlayer.
func NewFallbackPlayer(primary, secondary tts.Player, logger *log.Logger) *FallbackPlayer {
	if logger == nil {
		logger = log.Default()
	}
	return &FallbackPlayer{primary: primary, secondary: secondary, logger: logger}
}

// Play plays wav on the primary player. A device or format failure retries
// on the secondary and, for a device failure, sticks with it.
func (p *FallbackPlayer) Play(ctx context.Context, wav []byte) error {
	p.mu.Lock()
	degraded := p.degraded
	p.mu.Unlock()

	if degraded {
		return p.secondary.Play(ctx, wav)
	}

	err := p.primary.Play(ctx, wav)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDeviceUnavailable):
		p.logger.Warn("audio device unavailable, switching to command player", "err", err)
		p.mu.Lock()
		p.degraded = true
		p.mu.Unlock()
	case errors.Is(err, ErrFormatMismatch), errors.Is(err, ErrUnsupportedFormat):
		p.logger.Debug("falling back to command player", "err", err)
	default:
		return err
	}
	return p.secondary.Play(ctx, wav)
}

// Halt halts both players.
func (p *FallbackPlayer) Halt() {
	p.primary.Halt()
	p.secondary.Halt()
}
