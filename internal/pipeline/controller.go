// Package pipeline overlaps synthesis of the next chunk with playback of the
// current one, with bounded read-ahead and cooperative cancellation.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/readtext/internal/queue"
	"github.com/dgnsrekt/readtext/internal/tts"
)

// ErrAlreadyRunning is returned by Run while another run is active.
var ErrAlreadyRunning = errors.New("pipeline is already running")

// DefaultMaxBufferSize is the default number of synthesized chunks held
// ahead of playback.
const DefaultMaxBufferSize = 2

// State is the lifecycle state of a Controller.
type State int

const (
	// Idle has no active run.
	Idle State = iota
	// Running has an active run.
	Running
	// Stopping has an active run that was asked to stop.
	Stopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

type item struct {
	index   int
	text    string
	payload tts.AudioPayload
}

// Controller runs one synthesis/playback pipeline at a time.
type Controller struct {
	synth     tts.Synthesizer
	player    tts.Player
	maxBuffer int
	logger    *log.Logger
	observer  func(Event)

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	resume chan struct{} // non-nil while paused
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxBufferSize sets how many synthesized chunks may wait for playback.
func WithMaxBufferSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxBuffer = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a progress callback. It is called from the
// pipeline goroutines and must not block.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// New creates an idle controller.
func New(synth tts.Synthesizer, player tts.Player, opts ...Option) *Controller {
	c := &Controller{
		synth:     synth,
		player:    player,
		maxBuffer: DefaultMaxBufferSize,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run synthesizes and plays chunks in order. Blank chunks are skipped. It
// returns after both the generator and the consumer have stopped, with the
// first failure if any. A run ended by Stop or by ctx returns nil.
func (c *Controller) Run(ctx context.Context, chunks []string, opts tts.Options) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.state = Running
	c.cancel = cancel
	c.resume = nil
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		c.state = Idle
		c.cancel = nil
		if c.resume != nil {
			close(c.resume)
			c.resume = nil
		}
		c.mu.Unlock()
	}()

	logger := c.logger.With("run", uuid.NewString()[:8])
	logger.Debug("pipeline started", "chunks", len(chunks), "buffer", c.maxBuffer)

	q := queue.New[item]()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return c.generate(gctx, q, chunks, opts, logger) })
	g.Go(func() error { return c.consume(gctx, q, logger) })

	err := g.Wait()
	if err != nil {
		if !q.Terminal() {
			q.Abort(err)
		}
		logger.Error("pipeline failed", "err", err)
		return err
	}

	if runCtx.Err() != nil {
		logger.Debug("pipeline stopped")
	} else {
		logger.Debug("pipeline finished")
	}
	return nil
}

// generate synthesizes chunks in order and feeds the queue.
func (c *Controller) generate(ctx context.Context, q *queue.Queue[item], chunks []string, opts tts.Options, logger *log.Logger) error {
	defer q.Close()

	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return nil
		}
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		if err := q.WaitBelow(ctx, c.maxBuffer); err != nil || q.Terminal() {
			return nil
		}

		payload, err := c.synth.Synthesize(ctx, chunk, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			err = tts.NewSynthesisError(c.synth.Name(), err)
			q.Abort(err)
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		logger.Debug("chunk synthesized", "chunk", i, "bytes", len(payload.Data))
		c.emit(Event{Kind: EventSynthesized, Index: i, Text: chunk, Bytes: len(payload.Data)})

		if err := q.Push(item{index: i, text: chunk, payload: payload}); err != nil {
			// The consumer aborted the queue.
			return nil
		}
	}
	return nil
}

// consume plays queued audio until the queue ends.
func (c *Controller) consume(ctx context.Context, q *queue.Queue[item], logger *log.Logger) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !c.waitWhilePaused(ctx) {
			return nil
		}

		it, err := q.Pull(ctx)
		if errors.Is(err, queue.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			if qerr := q.Err(); qerr != nil {
				return qerr
			}
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		c.emit(Event{Kind: EventPlaying, Index: it.index, Text: it.text, Bytes: len(it.payload.Data)})
		if err := c.player.Play(ctx, it.payload.Data); err != nil {
			if ctx.Err() != nil {
				logger.Debug("playback interrupted", "chunk", it.index, "err", err)
				return nil
			}
			err = tts.NewPlaybackError(err)
			q.Abort(err)
			return err
		}
		logger.Debug("chunk played", "chunk", it.index)
		c.emit(Event{Kind: EventPlayed, Index: it.index, Text: it.text})
	}
}

// Stop cancels the active run and halts playback. It does nothing when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != Running {
		c.mu.Unlock()
		return
	}
	c.state = Stopping
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.player.Halt()
}

// IsActive reports whether a run is in progress.
func (c *Controller) IsActive() bool {
	return c.State() != Idle
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pause holds the consumer before it takes the next chunk. Audio already
// playing finishes and synthesis keeps filling the buffer. It returns false
// when there is no running, unpaused run.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	if c.state != Running || c.resume != nil {
		c.mu.Unlock()
		return false
	}
	c.resume = make(chan struct{})
	c.mu.Unlock()

	c.emit(Event{Kind: EventPaused, Index: -1})
	return true
}

// Resume releases a paused run. It returns false when nothing is paused.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	if c.state != Running || c.resume == nil {
		c.mu.Unlock()
		return false
	}
	close(c.resume)
	c.resume = nil
	c.mu.Unlock()

	c.emit(Event{Kind: EventResumed, Index: -1})
	return true
}

// IsPaused reports whether the running pipeline is paused.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Running && c.resume != nil
}

// waitWhilePaused blocks while paused. It returns false if ctx ends first.
func (c *Controller) waitWhilePaused(ctx context.Context) bool {
	c.mu.Lock()
	resume := c.resume
	c.mu.Unlock()
	if resume == nil {
		return true
	}

	select {
	case <-resume:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) emit(e Event) {
	if c.observer != nil {
		c.observer(e)
	}
}
