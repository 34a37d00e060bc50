// Package reader is the entry point for reading text aloud. It splits text
// into chunks and either plays a single chunk directly or streams many
// through the pipeline.
package reader

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/readtext/internal/markup"
	"github.com/dgnsrekt/readtext/internal/pipeline"
	"github.com/dgnsrekt/readtext/internal/tts"
)

// DefaultSplitThreshold is the number of lines per chunk.
const DefaultSplitThreshold = 50

// ErrBusy is returned by Read while another read is in progress.
var ErrBusy = pipeline.ErrAlreadyRunning

// Reader reads text aloud with one synthesizer and one player.
type Reader struct {
	synth     tts.Synthesizer
	player    tts.Player
	pipe      *pipeline.Controller
	threshold int
	logger    *log.Logger
	observer  func(pipeline.Event)

	mu     sync.Mutex
	direct context.CancelFunc // set while a single chunk is being read
}

// Option configures a Reader.
type Option func(*config)

type config struct {
	threshold  int
	bufferSize int
	logger     *log.Logger
	observer   func(pipeline.Event)
}

// WithSplitThreshold sets the number of lines per chunk.
func WithSplitThreshold(n int) Option {
	return func(c *config) { c.threshold = n }
}

// WithBufferSize sets how many chunks are synthesized ahead of playback.
func WithBufferSize(n int) Option {
	return func(c *config) { c.bufferSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithObserver registers a progress callback.
func WithObserver(fn func(pipeline.Event)) Option {
	return func(c *config) { c.observer = fn }
}

// New creates a Reader.
func New(synth tts.Synthesizer, player tts.Player, opts ...Option) *Reader {
	cfg := config{
		threshold:  DefaultSplitThreshold,
		bufferSize: pipeline.DefaultMaxBufferSize,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}

	return &Reader{
		synth:     synth,
		player:    player,
		threshold: cfg.threshold,
		logger:    cfg.logger,
		observer:  cfg.observer,
		pipe: pipeline.New(synth, player,
			pipeline.WithMaxBufferSize(cfg.bufferSize),
			pipeline.WithLogger(cfg.logger),
			pipeline.WithObserver(cfg.observer),
		),
	}
}

// Read speaks text and blocks until it has been played, stopped or failed.
func (r *Reader) Read(ctx context.Context, text string, opts tts.Options) error {
	if err := tts.ValidateText(r.synth.Name(), text); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return tts.NewValidationError(r.synth.Name(), err)
	}

	chunks := r.Chunks(text)
	r.logger.Debug("reading text", "engine", r.synth.Name(), "chunks", len(chunks), "bytes", len(text))

	if len(chunks) == 1 {
		return r.readDirect(ctx, chunks[0], opts)
	}

	r.mu.Lock()
	busy := r.direct != nil
	r.mu.Unlock()
	if busy {
		return ErrBusy
	}
	return r.pipe.Run(ctx, chunks, opts)
}

// Chunks returns the pieces Read would synthesize for text.
func (r *Reader) Chunks(text string) []string {
	return markup.SplitLines(norm.NFC.String(text), r.threshold)
}

// readDirect synthesizes and plays one chunk without the pipeline.
func (r *Reader) readDirect(ctx context.Context, chunk string, opts tts.Options) error {
	r.mu.Lock()
	if r.direct != nil || r.pipe.IsActive() {
		r.mu.Unlock()
		return ErrBusy
	}
	ctx, cancel := context.WithCancel(ctx)
	r.direct = cancel
	r.mu.Unlock()

	defer func() {
		cancel()
		r.mu.Lock()
		r.direct = nil
		r.mu.Unlock()
	}()

	payload, err := r.synth.Synthesize(ctx, chunk, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return tts.NewSynthesisError(r.synth.Name(), err)
	}
	r.emit(pipeline.Event{Kind: pipeline.EventSynthesized, Index: 0, Text: chunk, Bytes: len(payload.Data)})

	r.emit(pipeline.Event{Kind: pipeline.EventPlaying, Index: 0, Text: chunk, Bytes: len(payload.Data)})
	if err := r.player.Play(ctx, payload.Data); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return tts.NewPlaybackError(err)
	}
	r.emit(pipeline.Event{Kind: pipeline.EventPlayed, Index: 0, Text: chunk})
	return nil
}

// Stop interrupts the current read.
func (r *Reader) Stop() {
	r.mu.Lock()
	direct := r.direct
	r.mu.Unlock()

	if direct != nil {
		direct()
		r.player.Halt()
		return
	}
	r.pipe.Stop()
}

// IsActive reports whether a read is in progress.
func (r *Reader) IsActive() bool {
	r.mu.Lock()
	direct := r.direct != nil
	r.mu.Unlock()
	return direct || r.pipe.IsActive()
}

// Pause holds playback before the next chunk. Single-chunk reads cannot be
// paused.
func (r *Reader) Pause() bool { return r.pipe.Pause() }

// Resume continues a paused read.
func (r *Reader) Resume() bool { return r.pipe.Resume() }

// IsPaused reports whether the read is paused.
func (r *Reader) IsPaused() bool { return r.pipe.IsPaused() }

// TogglePause pauses a running read or resumes a paused one.
func (r *Reader) TogglePause() bool {
	if r.pipe.IsPaused() {
		return r.pipe.Resume()
	}
	return r.pipe.Pause()
}

func (r *Reader) emit(e pipeline.Event) {
	if r.observer != nil {
		r.observer(e)
	}
}

// IsBusy reports whether err means another read is in progress.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
