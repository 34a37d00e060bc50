package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// CommandConfig configures a CommandPlayer.
type CommandConfig struct {
	// Command is the external player, defaults to "aplay"
	Command string

	// Args are passed before the file name, default ["-q"] for aplay
	Args []string

	// TempDir holds the WAV files handed to the command
	TempDir string

	// FilePrefix for temp file names
	FilePrefix string

	// AutoCleanup removes each file after it has been played
	AutoCleanup bool
}

// CommandPlayer plays WAV audio by writing it to a file and running an
// external program on it.
type CommandPlayer struct {
	command     string
	args        []string
	tempDir     string
	filePrefix  string
	autoCleanup bool
	logger      *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandPlayer creates a command player.
func NewCommandPlayer(config CommandConfig, logger *log.Logger) (*CommandPlayer, error) {
	if config.Command == "" {
		config.Command = "aplay"
		if config.Args == nil {
			config.Args = []string{"-q"}
		}
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.FilePrefix == "" {
		config.FilePrefix = "readtext_"
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(config.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &CommandPlayer{
		command:     config.Command,
		args:        config.Args,
		tempDir:     config.TempDir,
		filePrefix:  config.FilePrefix,
		autoCleanup: config.AutoCleanup,
		logger:      logger,
	}, nil
}

// Available reports whether the command can be found on PATH.
func (p *CommandPlayer) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// Play blocks until the command exits, ctx is canceled or Halt is called.
func (p *CommandPlayer) Play(ctx context.Context, wav []byte) error {
	if len(wav) == 0 {
		return nil
	}

	f, err := os.CreateTemp(p.tempDir, p.filePrefix+"*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	if p.autoCleanup {
		defer os.Remove(path)
	}
	if _, err := f.Write(wav); err != nil {
		f.Close()
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
	}()

	args := append(append([]string(nil), p.args...), path)
	cmd := exec.CommandContext(ctx, p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Children of a killed shell can hold stderr open.
	cmd.WaitDelay = 500 * time.Millisecond

	p.logger.Debug("running audio command", "command", p.command, "file", path)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ErrHalted
		}
		return fmt.Errorf("%s failed: %w\nstderr: %s", p.command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Halt kills the running command.
func (p *CommandPlayer) Halt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}
