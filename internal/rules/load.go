package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Spec is the serialized form of a Rule, shared by the main configuration
// file and preset files.
type Spec struct {
	Type string `yaml:"type" toml:"type" mapstructure:"type"`

	// command
	Name            string `yaml:"name,omitempty" toml:"name,omitempty" mapstructure:"name"`
	ArgCount        int    `yaml:"arg_count,omitempty" toml:"arg_count,omitempty" mapstructure:"arg_count"`
	ArgMask         []bool `yaml:"arg_mask,omitempty" toml:"arg_mask,omitempty" mapstructure:"arg_mask"`
	HasOptionalArg  bool   `yaml:"has_optional_arg,omitempty" toml:"has_optional_arg,omitempty" mapstructure:"has_optional_arg"`
	KeepOptionalArg bool   `yaml:"keep_optional_arg,omitempty" toml:"keep_optional_arg,omitempty" mapstructure:"keep_optional_arg"`
	Prefix          string `yaml:"prefix,omitempty" toml:"prefix,omitempty" mapstructure:"prefix"`
	Suffix          string `yaml:"suffix,omitempty" toml:"suffix,omitempty" mapstructure:"suffix"`

	// range
	Start         string `yaml:"start,omitempty" toml:"start,omitempty" mapstructure:"start"`
	End           string `yaml:"end,omitempty" toml:"end,omitempty" mapstructure:"end"`
	IncludeNested *bool  `yaml:"include_nested,omitempty" toml:"include_nested,omitempty" mapstructure:"include_nested"`

	// exclude, replace
	Pattern     string `yaml:"pattern,omitempty" toml:"pattern,omitempty" mapstructure:"pattern"`
	Regex       bool   `yaml:"regex,omitempty" toml:"regex,omitempty" mapstructure:"regex"`
	Flags       string `yaml:"flags,omitempty" toml:"flags,omitempty" mapstructure:"flags"`
	Replacement string `yaml:"replacement,omitempty" toml:"replacement,omitempty" mapstructure:"replacement"`
}

// Rule converts the spec into a Rule.
func (s Spec) Rule() (Rule, error) {
	kind, err := ParseKind(strings.ToLower(s.Type))
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCommand:
		if s.Name == "" {
			return nil, errors.New("command rule requires a name")
		}
		if s.ArgCount < 0 {
			return nil, fmt.Errorf("command %q: negative arg_count", s.Name)
		}
		return CommandRule{
			Name:            s.Name,
			ArgCount:        s.ArgCount,
			ArgMask:         s.ArgMask,
			HasOptionalArg:  s.HasOptionalArg,
			KeepOptionalArg: s.KeepOptionalArg,
			Prefix:          s.Prefix,
			Suffix:          s.Suffix,
		}, nil
	case KindRange:
		if s.Start == "" || s.End == "" {
			return nil, errors.New("range rule requires start and end")
		}
		nested := true
		if s.IncludeNested != nil {
			nested = *s.IncludeNested
		}
		return RangeRule{Start: s.Start, End: s.End, IncludeNested: nested}, nil
	case KindExclude:
		if s.Pattern == "" {
			return nil, errors.New("exclude rule requires a pattern")
		}
		return ExcludeRule{Pattern: s.Pattern, Regex: s.Regex, Flags: s.Flags}, nil
	default:
		if s.Pattern == "" {
			return nil, errors.New("replace rule requires a pattern")
		}
		return ReplaceRule{Pattern: s.Pattern, Regex: s.Regex, Flags: s.Flags, Replacement: s.Replacement}, nil
	}
}

// FromSpecs converts specs in order, reporting the index of the first invalid one.
func FromSpecs(specs []Spec) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	for i, s := range specs {
		r, err := s.Rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// PresetFile is the on-disk form of a preset.
type PresetFile struct {
	Name         string   `yaml:"name" toml:"name"`
	Description  string   `yaml:"description,omitempty" toml:"description,omitempty"`
	FilePatterns []string `yaml:"file_patterns" toml:"file_patterns"`
	Rules        []Spec   `yaml:"rules" toml:"rules"`
}

// ParsePreset decodes a preset document. format is "yaml" or "toml".
func ParsePreset(data []byte, format string) (Preset, error) {
	var pf PresetFile
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&pf); err != nil {
			return Preset{}, fmt.Errorf("decode yaml preset: %w", err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&pf); err != nil {
			return Preset{}, fmt.Errorf("decode toml preset: %w", err)
		}
	default:
		return Preset{}, fmt.Errorf("unsupported preset format %q", format)
	}

	if pf.Name == "" {
		return Preset{}, errors.New("preset requires a name")
	}
	rs, err := FromSpecs(pf.Rules)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %q: %w", pf.Name, err)
	}
	return Preset{
		Name:         pf.Name,
		Description:  pf.Description,
		FilePatterns: pf.FilePatterns,
		Rules:        rs,
	}, nil
}

// LoadPresetFile reads a preset from a .yaml, .yml or .toml file.
func LoadPresetFile(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	p, err := ParsePreset(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadPresetDir reads every preset file in dir, sorted by file name. A
// missing directory yields no presets.
func LoadPresetDir(dir string) ([]Preset, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var presets []Preset
	for _, name := range names {
		p, err := LoadPresetFile(filepath.Join(dir, name))
		if err != nil {
			return presets, err
		}
		presets = append(presets, p)
	}
	return presets, nil
}
