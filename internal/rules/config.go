package rules

import (
	"fmt"
	"strings"
)

// Mode controls how custom rules combine with preset rules.
type Mode string

const (
	// ModeExtend appends custom rules after preset rules.
	ModeExtend Mode = "extend"
	// ModeOverride lets a custom command rule replace a preset command rule
	// of the same name.
	ModeOverride Mode = "override"
)

// ParseMode parses a mode name. An empty string is ModeExtend.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExtend:
		return ModeExtend, nil
	case ModeOverride:
		return ModeOverride, nil
	default:
		return "", fmt.Errorf("invalid reading rules mode %q (want extend or override)", s)
	}
}

// Config is a rule-set configuration.
type Config struct {
	Presets     []string
	CustomRules []Rule
	Mode        Mode
	Enabled     bool
}

// DefaultConfig enables the LaTeX preset in extend mode.
func DefaultConfig() Config {
	return Config{
		Presets: []string{LaTeXName},
		Mode:    ModeExtend,
		Enabled: true,
	}
}

// Collect resolves the ordered rule list for cfg against reg. Unknown preset
// names are skipped.
func Collect(cfg Config, reg *Registry) []Rule {
	var out []Rule
	for _, name := range cfg.Presets {
		p, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, p.Rules...)
	}

	if cfg.Mode == ModeOverride {
		overridden := make(map[string]bool)
		for _, r := range cfg.CustomRules {
			if c, ok := r.(CommandRule); ok {
				overridden[c.Name] = true
			}
		}
		if len(overridden) > 0 {
			kept := out[:0:0]
			for _, r := range out {
				if c, ok := r.(CommandRule); ok && overridden[c.Name] {
					continue
				}
				kept = append(kept, r)
			}
			out = kept
		}
	}

	return append(out, cfg.CustomRules...)
}
