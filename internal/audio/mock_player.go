package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer simulates playback without producing sound. It waits for the
// audio's duration scaled by a delay factor and records what it played. It
// backs the "null" audio backend and tests.
type MockPlayer struct {
	delayFactor float64
	callbacks   MockCallbacks
	discard     bool

	mu     sync.Mutex
	played [][]byte
	halt   chan struct{}
	fail   error

	playCount atomic.Int64
	haltCount atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay func(wav []byte)
	OnHalt func()
}

// MockPlayerMetrics counts calls made to a MockPlayer.
type MockPlayerMetrics struct {
	PlayCount int64
	HaltCount int64
}

// DefaultMockPlayer returns a MockPlayer that plays in real time.
func DefaultMockPlayer() *MockPlayer {
	return &MockPlayer{delayFactor: 1.0}
}

// NewNullPlayer returns a MockPlayer that keeps real-time pacing but does
// not record the audio it is given.
func NewNullPlayer() *MockPlayer {
	return &MockPlayer{delayFactor: 1.0, discard: true}
}

// NewMockPlayer returns a MockPlayer with callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

// SetDelayFactor scales simulated playback time. Zero returns immediately.
func (mp *MockPlayer) SetDelayFactor(factor float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.delayFactor = factor
}

// SetError makes every following Play fail with err. Nil clears it.
func (mp *MockPlayer) SetError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.fail = err
}

// Play waits for the simulated duration of wav.
func (mp *MockPlayer) Play(ctx context.Context, wav []byte) error {
	mp.playCount.Add(1)

	mp.mu.Lock()
	if mp.fail != nil {
		err := mp.fail
		mp.mu.Unlock()
		return err
	}
	halt := make(chan struct{})
	mp.halt = halt
	factor := mp.delayFactor
	mp.mu.Unlock()

	defer func() {
		mp.mu.Lock()
		if mp.halt == halt {
			mp.halt = nil
		}
		mp.mu.Unlock()
	}()

	if mp.callbacks.OnPlay != nil {
		mp.callbacks.OnPlay(wav)
	}

	d, err := WAVDuration(wav)
	if err != nil && !errors.Is(err, ErrNotWAV) {
		return err
	}
	d = time.Duration(float64(d) * factor)

	if d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		case <-halt:
			return ErrHalted
		}
	}

	if mp.discard {
		return nil
	}
	data := make([]byte, len(wav))
	copy(data, wav)
	mp.mu.Lock()
	mp.played = append(mp.played, data)
	mp.mu.Unlock()
	return nil
}

// Halt interrupts the current Play call.
func (mp *MockPlayer) Halt() {
	mp.haltCount.Add(1)

	mp.mu.Lock()
	if mp.halt != nil {
		close(mp.halt)
		mp.halt = nil
	}
	mp.mu.Unlock()

	if mp.callbacks.OnHalt != nil {
		mp.callbacks.OnHalt()
	}
}

// Played returns copies of the payloads that finished playing.
func (mp *MockPlayer) Played() [][]byte {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([][]byte(nil), mp.played...)
}

// GetMetrics returns call counts.
func (mp *MockPlayer) GetMetrics() MockPlayerMetrics {
	return MockPlayerMetrics{
		PlayCount: mp.playCount.Load(),
		HaltCount: mp.haltCount.Load(),
	}
}
