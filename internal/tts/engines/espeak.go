package engines

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// EspeakName is the engine name used in configuration.
const EspeakName = "espeak"

// EspeakConfig holds configuration for the eSpeak engine.
type EspeakConfig struct {
	// Command is espeak or espeak-ng, defaults to "espeak"
	Command string

	// Voice is the language voice (e.g. "en", "en-us"), and Variant an
	// optional variant appended as voice+variant
	Voice   string
	Variant string

	// Speed and Pitch used when Options leave them unset
	Speed float64
	Pitch float64

	// TempDir for rendered WAV files, defaults to the system temp dir
	TempDir string

	// FilePrefix for temp file names
	FilePrefix string

	// Timeout per invocation, defaults to 30s
	Timeout time.Duration
}

// Espeak synthesizes speech by running espeak and reading its WAV output.
type Espeak struct {
	command    string
	voice      string
	variant    string
	speed      float64
	pitch      float64
	tempDir    string
	filePrefix string
	timeout    time.Duration
}

// NewEspeak creates an eSpeak engine.
func NewEspeak(config EspeakConfig) (*Espeak, error) {
	if config.Command == "" {
		config.Command = "espeak"
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.FilePrefix == "" {
		config.FilePrefix = "readtext_"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if err := os.MkdirAll(config.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Espeak{
		command:    config.Command,
		voice:      config.Voice,
		variant:    config.Variant,
		speed:      config.Speed,
		pitch:      config.Pitch,
		tempDir:    config.TempDir,
		filePrefix: config.FilePrefix,
		timeout:    config.Timeout,
	}, nil
}

// Name returns "espeak".
func (e *Espeak) Name() string { return EspeakName }

// Available runs "espeak --version".
func (e *Espeak) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, e.command, "--version").Run() == nil
}

// Synthesize renders text to WAV.
func (e *Espeak) Synthesize(ctx context.Context, text string, opts tts.Options) (tts.AudioPayload, error) {
	if err := tts.ValidateText(EspeakName, text); err != nil {
		return tts.AudioPayload{}, err
	}

	out, err := os.CreateTemp(e.tempDir, e.filePrefix+"espeak_*.wav")
	if err != nil {
		return tts.AudioPayload{}, tts.NewSynthesisError(EspeakName, fmt.Errorf("failed to create temp file: %w", err))
	}
	path := out.Name()
	out.Close()
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, e.args(text, path, opts)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return tts.AudioPayload{}, tts.NewSynthesisError(EspeakName, fmt.Errorf("espeak timeout: %w", ctx.Err()))
		}
		return tts.AudioPayload{}, tts.NewSynthesisError(EspeakName,
			fmt.Errorf("espeak command failed: %w\nstderr: %s", err, strings.TrimSpace(stderr.String())))
	}

	wav, err := os.ReadFile(path)
	if err != nil {
		return tts.AudioPayload{}, tts.NewSynthesisError(EspeakName, err)
	}
	if len(wav) == 0 {
		return tts.AudioPayload{}, tts.NewSynthesisError(EspeakName, fmt.Errorf("espeak produced no audio"))
	}
	return tts.WAV(wav), nil
}

// args builds the command line. Speed maps 1.0 to 175 words per minute and
// pitch maps -1..1 onto 1..99.
func (e *Espeak) args(text, path string, opts tts.Options) []string {
	var args []string
	if voice := e.voiceString(opts.Voice); voice != "" {
		args = append(args, "-v", voice)
	}

	wpm := int(math.Round(175 * opts.SpeedOr(e.speed)))
	pitch := int(math.Round(50 + opts.PitchOr(e.pitch)*49))
	args = append(args,
		"-s", strconv.Itoa(wpm),
		"-p", strconv.Itoa(pitch),
		"-w", path,
		// Text starting with "-" must not be read as a flag.
		"--", text,
	)
	return args
}

func (e *Espeak) voiceString(override string) string {
	if override != "" {
		return override
	}
	if e.voice == "" {
		return ""
	}
	if e.variant != "" {
		return e.voice + "+" + e.variant
	}
	return e.voice
}
