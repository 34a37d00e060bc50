package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/readtext/internal/rules"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("readtext")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if yaml != "" {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
			t.Fatalf("Failed to read config: %v", err)
		}
	}
	return v
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if cfg.Pipeline.BufferSize != 2 {
		t.Errorf("Expected default buffer size 2, got %d", cfg.Pipeline.BufferSize)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine != "voicevox" || cfg.Speed != 1.0 || cfg.Voicevox.Speaker != 3 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.Cache.TTL != 7*24*time.Hour {
		t.Errorf("Expected 168h TTL, got %s", cfg.Cache.TTL)
	}
	if len(cfg.ReadingRules.Presets) != 1 || cfg.ReadingRules.Presets[0] != rules.LaTeXName {
		t.Errorf("Expected latex preset, got %v", cfg.ReadingRules.Presets)
	}
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(newViper(t, `
engine: ESpeak
speed: 1.5
pitch: -0.5
espeak:
  voice: en-us
  variant: f3
  timeout: 10s
audio:
  backend: command
  command: paplay
  args: []
pipeline:
  buffer_size: 4
cache:
  enabled: false
reading_rules:
  mode: override
  custom_rules:
    - type: command
      name: textbf
      arg_count: 1
      arg_mask: [true]
    - type: replace
      pattern: "&"
      replacement: " and "
`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Engine != "espeak" {
		t.Errorf("Expected engine to be normalized, got %q", cfg.Engine)
	}
	if cfg.Speed != 1.5 || cfg.Pitch != -0.5 {
		t.Errorf("Expected speed 1.5 pitch -0.5, got %v %v", cfg.Speed, cfg.Pitch)
	}
	if cfg.Espeak.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %s", cfg.Espeak.Timeout)
	}
	if cfg.DefaultVoice() != "en-us+f3" {
		t.Errorf("Expected voice with variant, got %q", cfg.DefaultVoice())
	}
	if cfg.Audio.Command != "paplay" || len(cfg.Audio.Args) != 0 {
		t.Errorf("Unexpected audio config %+v", cfg.Audio)
	}
	if cfg.Pipeline.BufferSize != 4 {
		t.Errorf("Expected buffer size 4, got %d", cfg.Pipeline.BufferSize)
	}
	if len(cfg.ReadingRules.CustomRules) != 2 {
		t.Fatalf("Expected 2 custom rules, got %d", len(cfg.ReadingRules.CustomRules))
	}

	rc, err := cfg.RuleConfig(rules.DefaultRegistry())
	if err != nil {
		t.Fatalf("RuleConfig failed: %v", err)
	}
	if rc.Mode != rules.ModeOverride || len(rc.CustomRules) != 2 {
		t.Errorf("Unexpected rule config %+v", rc)
	}
	if c, ok := rc.CustomRules[0].(rules.CommandRule); !ok || c.Name != "textbf" {
		t.Errorf("Expected textbf command rule, got %#v", rc.CustomRules[0])
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("READTEXT_ENGINE", "mock")
	t.Setenv("READTEXT_VOICEVOX_SPEAKER", "8")

	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine != "mock" {
		t.Errorf("Expected engine from env, got %q", cfg.Engine)
	}
	if cfg.Voicevox.Speaker != 8 {
		t.Errorf("Expected speaker 8 from env, got %d", cfg.Voicevox.Speaker)
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg, err := Load(newViper(t, "cache:\n  dir: ~/cache\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := filepath.Join(home, "cache"); cfg.Cache.Dir != want {
		t.Errorf("Expected %s, got %s", want, cfg.Cache.Dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown engine", func(c *Config) { c.Engine = "piper" }, "invalid engine"},
		{"speed too high", func(c *Config) { c.Speed = 3 }, "speed"},
		{"speed zero", func(c *Config) { c.Speed = 0 }, "speed"},
		{"pitch too low", func(c *Config) { c.Pitch = -2 }, "pitch"},
		{"bad backend", func(c *Config) { c.Audio.Backend = "pulse" }, "audio backend"},
		{"buffer too small", func(c *Config) { c.Pipeline.BufferSize = 0 }, "buffer size"},
		{"threshold", func(c *Config) { c.Pipeline.SplitThreshold = 0 }, "split threshold"},
		{"cache memory", func(c *Config) { c.Cache.MemoryMB = 0 }, "memory_mb"},
		{"mode", func(c *Config) { c.ReadingRules.Mode = "replace" }, "mode"},
		{"bad rule", func(c *Config) {
			c.ReadingRules.CustomRules = []rules.Spec{{Type: "bogus"}}
		}, "custom_rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	cfg := Default()
	cfg.Cache.Enabled = false
	cfg.Cache.MemoryMB = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Cache limits should be ignored when disabled: %v", err)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Speed = 1.25
	cfg.Audio.TempDir = "/tmp/rt"

	ec := cfg.EngineConfig()
	if ec.Voicevox.Speed != 1.25 || ec.Espeak.Speed != 1.25 {
		t.Errorf("Expected speed to reach both engines, got %+v", ec)
	}
	if ec.Espeak.TempDir != "/tmp/rt" {
		t.Errorf("Expected espeak temp dir, got %q", ec.Espeak.TempDir)
	}

	cc := cfg.CacheConfig("/fallback")
	if cc.Dir != "/fallback" || cc.MemoryCapacity != 32<<20 || cc.DiskCapacity != 256<<20 {
		t.Errorf("Unexpected cache config %+v", cc)
	}

	if opts := cfg.Options(); opts.Speed != 1.25 || opts.Pitch == nil || *opts.Pitch != 0 {
		t.Errorf("Unexpected options %+v", opts)
	}
	if cfg.DefaultVoice() != "3" {
		t.Errorf("Expected voicevox speaker as default voice, got %q", cfg.DefaultVoice())
	}
}

func TestRuleConfig_PresetDirs(t *testing.T) {
	dir := t.TempDir()
	preset := "name: markdown\nfile_patterns: ['*.md']\nrules:\n  - type: replace\n    pattern: '#'\n"
	if err := os.WriteFile(filepath.Join(dir, "markdown.yaml"), []byte(preset), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.ReadingRules.PresetDirs = []string{dir}
	reg := rules.DefaultRegistry()
	if _, err := cfg.RuleConfig(reg); err != nil {
		t.Fatalf("RuleConfig failed: %v", err)
	}
	if name, ok := reg.ResolveForFilename("notes.md"); !ok || name != "markdown" {
		t.Errorf("Expected markdown preset to be registered, got %q %v", name, ok)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("READTEXT_LOG_FILE=/tmp/readtext-test.log\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("READTEXT_LOG_FILE", "")
	os.Unsetenv("READTEXT_LOG_FILE")

	if err := LoadDotenv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotenv failed: %v", err)
	}
	e, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if e.LogFile != "/tmp/readtext-test.log" {
		t.Errorf("Expected log file from .env, got %q", e.LogFile)
	}
}
