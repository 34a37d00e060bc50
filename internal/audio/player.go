package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

var (
	// ErrHalted is returned by Play when Halt interrupted playback.
	ErrHalted = errors.New("playback halted")

	// ErrFormatMismatch is returned when a WAV does not match the format the
	// audio device was opened with. The device can only be opened once per
	// process.
	ErrFormatMismatch = errors.New("audio format does not match the open device")

	// ErrDeviceUnavailable is returned when the audio device cannot be opened.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// The oto context is process wide.
var device struct {
	sync.Mutex
	ctx    *oto.Context
	format Format
	err    error
}

func openDevice(f Format) (*oto.Context, error) {
	device.Lock()
	defer device.Unlock()

	if device.err != nil {
		return nil, device.err
	}
	if device.ctx != nil {
		if device.format != f {
			return nil, fmt.Errorf("%w: device %s, audio %s", ErrFormatMismatch, device.format, f)
		}
		return device.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		device.err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		return nil, device.err
	}
	<-ready

	device.ctx = ctx
	device.format = f
	return ctx, nil
}

// Player plays WAV audio in process through oto. The device is opened on the
// first Play with that WAV's sample rate and channel count.
type Player struct {
	logger *log.Logger

	mu     sync.Mutex
	active *oto.Player
	halt   chan struct{}
}

// NewPlayer creates an oto player.
func NewPlayer(logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{logger: logger}
}

// Play blocks until the audio has finished, ctx is canceled or Halt is
// called.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	f, pcm, err := Decode(wav)
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return nil
	}

	octx, err := openDevice(f)
	if err != nil {
		return err
	}

	player := octx.NewPlayer(bytes.NewReader(pcm))
	halt := make(chan struct{})

	p.mu.Lock()
	p.active = player
	p.halt = halt
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.active = nil
		p.halt = nil
		p.mu.Unlock()
		_ = player.Close()
	}()

	player.Play()
	p.logger.Debug("playing audio", "format", f, "bytes", len(pcm), "duration", f.Duration(len(pcm)))

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-halt:
			return ErrHalted
		case <-ticker.C:
		}
	}
	return player.Err()
}

// Halt interrupts the current Play call. It does nothing when idle.
func (p *Player) Halt() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == nil {
		return
	}
	p.active.Pause()
	if p.halt != nil {
		close(p.halt)
		p.halt = nil
	}
}
