package engines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/readtext/internal/tts"
)

// VoicevoxName is the engine name used in configuration.
const VoicevoxName = "voicevox"

// maxResponseSize caps the WAV body read from the engine.
const maxResponseSize = 64 << 20

// VoicevoxConfig holds configuration for the VOICEVOX engine.
type VoicevoxConfig struct {
	// URL of the engine, defaults to http://localhost:50021
	URL string

	// Speaker ID used when Options.Voice is empty, defaults to 3
	Speaker int

	// Speed and Pitch used when Options leave them unset
	Speed float64
	Pitch float64

	// Timeout per HTTP request, defaults to 30s
	Timeout time.Duration

	// RequestsPerSecond limits the request rate, defaults to 5
	RequestsPerSecond float64

	// Client overrides the HTTP client
	Client *http.Client
}

// Voicevox synthesizes speech with a VOICEVOX engine over HTTP.
// Each chunk takes two requests: audio_query builds the prosody description
// and synthesis renders it to WAV.
type Voicevox struct {
	baseURL     string
	speaker     int
	speed       float64
	pitch       float64
	client      *http.Client
	rateLimiter *rate.Limiter
}

// NewVoicevox creates a VOICEVOX engine.
func NewVoicevox(config VoicevoxConfig) (*Voicevox, error) {
	if config.URL == "" {
		config.URL = "http://localhost:50021"
	}
	if _, err := url.Parse(config.URL); err != nil {
		return nil, fmt.Errorf("invalid VOICEVOX URL: %w", err)
	}
	if config.Speaker == 0 {
		config.Speaker = 3
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	client := config.Client
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Voicevox{
		baseURL:     strings.TrimRight(config.URL, "/"),
		speaker:     config.Speaker,
		speed:       config.Speed,
		pitch:       config.Pitch,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}, nil
}

// Name returns "voicevox".
func (e *Voicevox) Name() string { return VoicevoxName }

// Available checks that the engine answers GET /speakers.
func (e *Voicevox) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/speakers", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Synthesize renders text to WAV. Options.Voice is a numeric speaker ID.
func (e *Voicevox) Synthesize(ctx context.Context, text string, opts tts.Options) (tts.AudioPayload, error) {
	if err := tts.ValidateText(VoicevoxName, text); err != nil {
		return tts.AudioPayload{}, err
	}

	speaker := e.speaker
	if opts.Voice != "" {
		id, err := strconv.Atoi(opts.Voice)
		if err != nil {
			return tts.AudioPayload{}, tts.NewValidationError(VoicevoxName, fmt.Errorf("speaker must be numeric, got %q", opts.Voice))
		}
		speaker = id
	}

	query, err := e.audioQuery(ctx, text, speaker)
	if err != nil {
		return tts.AudioPayload{}, tts.NewSynthesisError(VoicevoxName, err)
	}

	query["speedScale"] = opts.SpeedOr(e.speed)
	query["pitchScale"] = opts.PitchOr(e.pitch)

	wav, err := e.synthesis(ctx, query, speaker)
	if err != nil {
		return tts.AudioPayload{}, tts.NewSynthesisError(VoicevoxName, err)
	}
	return tts.WAV(wav), nil
}

// audioQuery fetches the query document. Unknown fields are kept so they are
// sent back unchanged.
func (e *Voicevox) audioQuery(ctx context.Context, text string, speaker int) (map[string]any, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", strconv.Itoa(speaker))

	body, err := e.post(ctx, "/audio_query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("audio_query: %w", err)
	}

	var query map[string]any
	if err := json.Unmarshal(body, &query); err != nil {
		return nil, fmt.Errorf("audio_query: decode response: %w", err)
	}
	return query, nil
}

func (e *Voicevox) synthesis(ctx context.Context, query map[string]any, speaker int) ([]byte, error) {
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("synthesis: encode query: %w", err)
	}

	wav, err := e.post(ctx, "/synthesis?speaker="+strconv.Itoa(speaker), payload)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	if len(wav) == 0 {
		return nil, fmt.Errorf("synthesis: empty response")
	}
	return wav, nil
}

func (e *Voicevox) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s - %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
