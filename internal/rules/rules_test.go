package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistry_ResolveForFilename(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Preset{Name: "latex", FilePatterns: []string{"*.tex", "*.sty"}})
	reg.Register(Preset{Name: "notes", FilePatterns: []string{"notes-?.txt", "*.tex"}})

	tests := []struct {
		filename string
		want     string
		found    bool
	}{
		{"paper.tex", "latex", true},
		{"PAPER.TEX", "latex", true},
		{"/home/user/thesis/main.tex", "latex", true},
		{"style.sty", "latex", true},
		{"notes-1.txt", "notes", true},
		{"notes-12.txt", "", false},
		{"paper.tex.bak", "", false},
		{"paperxtex", "", false},
		{"README.md", "", false},
	}

	for _, tt := range tests {
		got, ok := reg.ResolveForFilename(tt.filename)
		if ok != tt.found || got != tt.want {
			t.Errorf("ResolveForFilename(%q) = %q, %v; want %q, %v", tt.filename, got, ok, tt.want, tt.found)
		}
	}
}

func TestRegistry_RegisterOverwriteKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Preset{Name: "a", FilePatterns: []string{"*.x"}})
	reg.Register(Preset{Name: "b", FilePatterns: []string{"*.x"}})
	reg.Register(Preset{Name: "a", FilePatterns: []string{"*.y"}})

	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names() = %v, want [a b]", names)
	}

	if got, _ := reg.ResolveForFilename("file.x"); got != "b" {
		t.Errorf("expected b after a was replaced, got %q", got)
	}
	if got, _ := reg.ResolveForFilename("file.y"); got != "a" {
		t.Errorf("expected a for file.y, got %q", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	p, ok := reg.Lookup(LaTeXName)
	if !ok {
		t.Fatal("latex preset not registered")
	}
	if len(p.Rules) == 0 {
		t.Fatal("latex preset has no rules")
	}
	if got, _ := reg.ResolveForFilename("main.tex"); got != LaTeXName {
		t.Errorf("main.tex resolved to %q", got)
	}
}

func TestCollect_Modes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Preset{Name: "base", Rules: []Rule{
		Keep("section", 1),
		Drop("label", 1),
		ExcludeRule{Pattern: "x"},
	}})

	custom := CommandRule{Name: "section", ArgCount: 1, ArgMask: []bool{true}, Prefix: "SECTION:"}

	extend := Collect(Config{Presets: []string{"base"}, CustomRules: []Rule{custom}, Mode: ModeExtend, Enabled: true}, reg)
	if len(extend) != 4 {
		t.Fatalf("extend: expected 4 rules, got %d", len(extend))
	}

	override := Collect(Config{Presets: []string{"base"}, CustomRules: []Rule{custom}, Mode: ModeOverride, Enabled: true}, reg)
	if len(override) != 3 {
		t.Fatalf("override: expected 3 rules, got %d", len(override))
	}
	last, ok := override[2].(CommandRule)
	if !ok || last.Prefix != "SECTION:" {
		t.Errorf("override: custom rule should be last, got %#v", override[2])
	}
	for _, r := range override[:2] {
		if c, ok := r.(CommandRule); ok && c.Name == "section" {
			t.Error("override: preset section rule should be removed")
		}
	}

	unknown := Collect(Config{Presets: []string{"missing", "base"}, Enabled: true}, reg)
	if len(unknown) != 3 {
		t.Errorf("unknown presets should be skipped, got %d rules", len(unknown))
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeExtend, "extend": ModeExtend, "Override": ModeOverride} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("merge"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSpec_Rule(t *testing.T) {
	r, err := Spec{Type: "range", Start: "<<", End: ">>"}.Rule()
	if err != nil {
		t.Fatalf("range spec: %v", err)
	}
	if rr := r.(RangeRule); !rr.IncludeNested {
		t.Error("include_nested should default to true")
	}

	no := false
	r, err = Spec{Type: "range", Start: "<<", End: ">>", IncludeNested: &no}.Rule()
	if err != nil {
		t.Fatalf("range spec: %v", err)
	}
	if r.(RangeRule).IncludeNested {
		t.Error("include_nested false was ignored")
	}

	bad := []Spec{
		{Type: "command"},
		{Type: "range", Start: "a"},
		{Type: "exclude"},
		{Type: "replace"},
		{Type: "unknown", Pattern: "x"},
	}
	for _, s := range bad {
		if _, err := s.Rule(); err == nil {
			t.Errorf("expected error for %#v", s)
		}
	}
}

func TestParsePreset_YAML(t *testing.T) {
	doc := `
name: notes
description: plain notes
file_patterns: ["*.note"]
rules:
  - type: command
    name: todo
    arg_count: 1
    arg_mask: [true]
    prefix: "to do, "
  - type: range
    start: "<!--"
    end: "-->"
    include_nested: false
  - type: replace
    pattern: "->"
    replacement: " to "
`
	p, err := ParsePreset([]byte(doc), "yaml")
	if err != nil {
		t.Fatalf("ParsePreset: %v", err)
	}
	if p.Name != "notes" || len(p.Rules) != 3 {
		t.Fatalf("unexpected preset %#v", p)
	}
	c := p.Rules[0].(CommandRule)
	if c.Prefix != "to do, " || !c.Keeps(0) {
		t.Errorf("unexpected command %#v", c)
	}
	if p.Rules[1].(RangeRule).IncludeNested {
		t.Error("include_nested should be false")
	}
}

func TestParsePreset_TOML(t *testing.T) {
	doc := `
name = "wiki"
file_patterns = ["*.wiki"]

[[rules]]
type = "exclude"
pattern = '\[\[|\]\]'
regex = true
`
	p, err := ParsePreset([]byte(doc), "toml")
	if err != nil {
		t.Fatalf("ParsePreset: %v", err)
	}
	ex, ok := p.Rules[0].(ExcludeRule)
	if !ok || !ex.Regex || ex.Pattern != `\[\[|\]\]` {
		t.Errorf("unexpected rule %#v", p.Rules[0])
	}
}

func TestParsePreset_Errors(t *testing.T) {
	if _, err := ParsePreset([]byte("rules: []"), "yaml"); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := ParsePreset([]byte("name: x\nbogus: 1"), "yaml"); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := ParsePreset([]byte("name: x"), "json"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestLoadPresetDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":     "name: b\nfile_patterns: ['*.b']\n",
		"a.toml":     "name = \"a\"\nfile_patterns = [\"*.a\"]\n",
		"ignore.txt": "not a preset",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	presets, err := LoadPresetDir(dir)
	if err != nil {
		t.Fatalf("LoadPresetDir: %v", err)
	}
	if len(presets) != 2 || presets[0].Name != "a" || presets[1].Name != "b" {
		t.Errorf("unexpected presets %#v", presets)
	}

	missing, err := LoadPresetDir(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: %v, %v", missing, err)
	}
}
