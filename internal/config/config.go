// Package config holds the readtext configuration model: defaults, loading
// from viper and the environment, validation and conversion into the
// settings of the engines, players, cache and rule set.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/readtext/internal/audio"
	"github.com/dgnsrekt/readtext/internal/cache"
	"github.com/dgnsrekt/readtext/internal/pipeline"
	"github.com/dgnsrekt/readtext/internal/rules"
	"github.com/dgnsrekt/readtext/internal/tts"
	"github.com/dgnsrekt/readtext/internal/tts/engines"
)

// Audio backends.
const (
	BackendAuto    = "auto"
	BackendOto     = "oto"
	BackendCommand = "command"
	BackendNull    = "null"
)

// Config is the complete readtext configuration.
type Config struct {
	Engine string  `mapstructure:"engine"`
	Speed  float64 `mapstructure:"speed"`
	Pitch  float64 `mapstructure:"pitch"`
	Voice  string  `mapstructure:"voice"`

	Voicevox     VoicevoxConfig     `mapstructure:"voicevox"`
	Espeak       EspeakConfig       `mapstructure:"espeak"`
	Audio        AudioConfig        `mapstructure:"audio"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Cache        CacheConfig        `mapstructure:"cache"`
	ReadingRules ReadingRulesConfig `mapstructure:"reading_rules"`
}

// VoicevoxConfig configures the VOICEVOX engine.
type VoicevoxConfig struct {
	URL               string        `mapstructure:"url"`
	Speaker           int           `mapstructure:"speaker"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// EspeakConfig configures the eSpeak engine.
type EspeakConfig struct {
	Command string        `mapstructure:"command"`
	Voice   string        `mapstructure:"voice"`
	Variant string        `mapstructure:"variant"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AudioConfig selects and configures playback.
type AudioConfig struct {
	Backend     string   `mapstructure:"backend"`
	Command     string   `mapstructure:"command"`
	Args        []string `mapstructure:"args"`
	TempDir     string   `mapstructure:"temp_dir"`
	FilePrefix  string   `mapstructure:"file_prefix"`
	AutoCleanup bool     `mapstructure:"auto_cleanup"`
}

// PipelineConfig tunes chunking and lookahead.
type PipelineConfig struct {
	BufferSize     int `mapstructure:"buffer_size"`
	SplitThreshold int `mapstructure:"split_threshold"`
}

// CacheConfig configures the audio cache. Sizes are in megabytes.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	MemoryMB int           `mapstructure:"memory_mb"`
	DiskMB   int           `mapstructure:"disk_mb"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ReadingRulesConfig configures text normalization.
type ReadingRulesConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Mode        string       `mapstructure:"mode"`
	Presets     []string     `mapstructure:"presets"`
	PresetDirs  []string     `mapstructure:"preset_dirs"`
	CustomRules []rules.Spec `mapstructure:"custom_rules"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: engines.VoicevoxName,
		Speed:  1.0,
		Pitch:  0.0,
		Voicevox: VoicevoxConfig{
			URL:               "http://localhost:50021",
			Speaker:           3,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
		},
		Espeak: EspeakConfig{
			Command: "espeak",
			Voice:   "en",
			Timeout: 30 * time.Second,
		},
		Audio: AudioConfig{
			Backend:     BackendAuto,
			Command:     "aplay",
			Args:        []string{"-q"},
			FilePrefix:  "readtext_",
			AutoCleanup: true,
		},
		Pipeline: PipelineConfig{
			BufferSize:     pipeline.DefaultMaxBufferSize,
			SplitThreshold: 50,
		},
		Cache: CacheConfig{
			Enabled:  true,
			MemoryMB: 32,
			DiskMB:   256,
			TTL:      7 * 24 * time.Hour,
		},
		ReadingRules: ReadingRulesConfig{
			Enabled: true,
			Mode:    string(rules.ModeExtend),
			Presets: []string{rules.LaTeXName},
		},
	}
}

// SetDefaults registers every key of Default with v, so that environment
// variables are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("engine", d.Engine)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("pitch", d.Pitch)
	v.SetDefault("voice", d.Voice)

	v.SetDefault("voicevox.url", d.Voicevox.URL)
	v.SetDefault("voicevox.speaker", d.Voicevox.Speaker)
	v.SetDefault("voicevox.timeout", d.Voicevox.Timeout)
	v.SetDefault("voicevox.requests_per_second", d.Voicevox.RequestsPerSecond)

	v.SetDefault("espeak.command", d.Espeak.Command)
	v.SetDefault("espeak.voice", d.Espeak.Voice)
	v.SetDefault("espeak.variant", d.Espeak.Variant)
	v.SetDefault("espeak.timeout", d.Espeak.Timeout)

	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.command", d.Audio.Command)
	v.SetDefault("audio.args", d.Audio.Args)
	v.SetDefault("audio.temp_dir", d.Audio.TempDir)
	v.SetDefault("audio.file_prefix", d.Audio.FilePrefix)
	v.SetDefault("audio.auto_cleanup", d.Audio.AutoCleanup)

	v.SetDefault("pipeline.buffer_size", d.Pipeline.BufferSize)
	v.SetDefault("pipeline.split_threshold", d.Pipeline.SplitThreshold)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.memory_mb", d.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", d.Cache.DiskMB)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("reading_rules.enabled", d.ReadingRules.Enabled)
	v.SetDefault("reading_rules.mode", d.ReadingRules.Mode)
	v.SetDefault("reading_rules.presets", d.ReadingRules.Presets)
	v.SetDefault("reading_rules.preset_dirs", d.ReadingRules.PresetDirs)
}

// Load decodes v into a Config, expands paths and validates the result.
// Keys missing from v take their default.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Audio.TempDir, &c.Cache.Dir, &c.Espeak.Command, &c.Audio.Command} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("unable to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	for i, dir := range c.ReadingRules.PresetDirs {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return fmt.Errorf("unable to expand path %q: %w", dir, err)
		}
		c.ReadingRules.PresetDirs[i] = expanded
	}
	return nil
}

// Validate checks value ranges and normalizes names to lower case.
func (c *Config) Validate() error {
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	if !contains(engines.Names(), c.Engine) {
		return fmt.Errorf("invalid engine %q: must be one of %v", c.Engine, engines.Names())
	}

	pitch := c.Pitch
	if err := (tts.Options{Speed: c.Speed, Pitch: &pitch}).Validate(); err != nil {
		return err
	}
	if c.Speed == 0 {
		return fmt.Errorf("speed must be between %.1f and %.1f", tts.MinSpeed, tts.MaxSpeed)
	}

	if c.Voicevox.URL == "" {
		return fmt.Errorf("voicevox url must not be empty")
	}
	if c.Voicevox.RequestsPerSecond <= 0 {
		return fmt.Errorf("voicevox requests_per_second must be positive, got %v", c.Voicevox.RequestsPerSecond)
	}
	if c.Voicevox.Timeout <= 0 || c.Espeak.Timeout <= 0 {
		return fmt.Errorf("engine timeouts must be positive")
	}

	c.Audio.Backend = strings.ToLower(strings.TrimSpace(c.Audio.Backend))
	backends := []string{BackendAuto, BackendOto, BackendCommand, BackendNull}
	if !contains(backends, c.Audio.Backend) {
		return fmt.Errorf("invalid audio backend %q: must be one of %v", c.Audio.Backend, backends)
	}
	if c.Audio.Command == "" && (c.Audio.Backend == BackendCommand || c.Audio.Backend == BackendAuto) {
		return fmt.Errorf("audio command must not be empty for the %s backend", c.Audio.Backend)
	}

	if c.Pipeline.BufferSize < 1 || c.Pipeline.BufferSize > 10 {
		return fmt.Errorf("buffer size must be between 1 and 10, got %d", c.Pipeline.BufferSize)
	}
	if c.Pipeline.SplitThreshold < 1 {
		return fmt.Errorf("split threshold must be at least 1, got %d", c.Pipeline.SplitThreshold)
	}

	if c.Cache.Enabled {
		if c.Cache.MemoryMB < 1 || c.Cache.MemoryMB > 10000 {
			return fmt.Errorf("cache memory_mb must be between 1 and 10000, got %d", c.Cache.MemoryMB)
		}
		if c.Cache.DiskMB < 0 || c.Cache.DiskMB > 100000 {
			return fmt.Errorf("cache disk_mb must be between 0 and 100000, got %d", c.Cache.DiskMB)
		}
		if c.Cache.TTL < 0 {
			return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
		}
	}

	mode, err := rules.ParseMode(c.ReadingRules.Mode)
	if err != nil {
		return err
	}
	c.ReadingRules.Mode = string(mode)
	if _, err := rules.FromSpecs(c.ReadingRules.CustomRules); err != nil {
		return fmt.Errorf("custom_rules: %w", err)
	}
	return nil
}

// Options returns the per-read synthesis options.
func (c Config) Options() tts.Options {
	pitch := c.Pitch
	return tts.Options{Speed: c.Speed, Pitch: &pitch, Voice: c.Voice}
}

// EngineConfig returns the settings for engines.New.
func (c Config) EngineConfig() engines.Config {
	return engines.Config{
		Voicevox: engines.VoicevoxConfig{
			URL:               c.Voicevox.URL,
			Speaker:           c.Voicevox.Speaker,
			Speed:             c.Speed,
			Pitch:             c.Pitch,
			Timeout:           c.Voicevox.Timeout,
			RequestsPerSecond: c.Voicevox.RequestsPerSecond,
		},
		Espeak: engines.EspeakConfig{
			Command:    c.Espeak.Command,
			Voice:      c.Espeak.Voice,
			Variant:    c.Espeak.Variant,
			Speed:      c.Speed,
			Pitch:      c.Pitch,
			TempDir:    c.Audio.TempDir,
			FilePrefix: c.Audio.FilePrefix,
			Timeout:    c.Espeak.Timeout,
		},
	}
}

// DefaultVoice is the voice the selected engine uses when none is given.
func (c Config) DefaultVoice() string {
	switch c.Engine {
	case engines.VoicevoxName:
		return fmt.Sprint(c.Voicevox.Speaker)
	case engines.EspeakName:
		if c.Espeak.Variant != "" {
			return c.Espeak.Voice + "+" + c.Espeak.Variant
		}
		return c.Espeak.Voice
	default:
		return ""
	}
}

// CommandConfig returns the settings of the external player.
func (c Config) CommandConfig() audio.CommandConfig {
	return audio.CommandConfig{
		Command:     c.Audio.Command,
		Args:        c.Audio.Args,
		TempDir:     c.Audio.TempDir,
		FilePrefix:  c.Audio.FilePrefix,
		AutoCleanup: c.Audio.AutoCleanup,
	}
}

// CacheConfig returns the cache settings. defaultDir is used when no
// directory is configured.
func (c Config) CacheConfig(defaultDir string) cache.Config {
	cfg := cache.DefaultConfig()
	cfg.MemoryCapacity = int64(c.Cache.MemoryMB) << 20
	cfg.DiskCapacity = int64(c.Cache.DiskMB) << 20
	cfg.TTL = c.Cache.TTL
	cfg.Dir = c.Cache.Dir
	if cfg.Dir == "" {
		cfg.Dir = defaultDir
	}
	return cfg
}

// RuleConfig registers the presets found in the preset directories with reg
// and returns the rule-set configuration.
func (c Config) RuleConfig(reg *rules.Registry) (rules.Config, error) {
	for _, dir := range c.ReadingRules.PresetDirs {
		presets, err := rules.LoadPresetDir(dir)
		if err != nil {
			return rules.Config{}, fmt.Errorf("unable to load presets from %s: %w", dir, err)
		}
		for _, p := range presets {
			reg.Register(p)
		}
	}

	custom, err := rules.FromSpecs(c.ReadingRules.CustomRules)
	if err != nil {
		return rules.Config{}, fmt.Errorf("custom_rules: %w", err)
	}
	mode, err := rules.ParseMode(c.ReadingRules.Mode)
	if err != nil {
		return rules.Config{}, err
	}

	return rules.Config{
		Presets:     c.ReadingRules.Presets,
		CustomRules: custom,
		Mode:        mode,
		Enabled:     c.ReadingRules.Enabled,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
