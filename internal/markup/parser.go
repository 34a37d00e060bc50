// Package markup normalizes marked-up text into readable prose using a
// compiled rule set.
package markup

import (
	"strings"

	"github.com/dgnsrekt/readtext/internal/rules"
)

// Parser applies a compiled rule set. It is immutable after construction
// and safe for concurrent use.
type Parser struct {
	enabled  bool
	ranges   []rules.RangeRule
	commands map[string]rules.CommandRule
	excludes []*pattern
	replaces []*pattern
	skipped  []error
}

// New compiles cfg against the presets in reg.
func New(cfg rules.Config, reg *rules.Registry) *Parser {
	p := &Parser{
		enabled:  cfg.Enabled,
		commands: make(map[string]rules.CommandRule),
	}
	if !cfg.Enabled {
		return p
	}

	for _, r := range rules.Collect(cfg, reg) {
		switch r := r.(type) {
		case rules.RangeRule:
			p.ranges = append(p.ranges, r)
		case rules.CommandRule:
			p.commands[r.Name] = r
		case rules.ExcludeRule:
			p.add(&p.excludes, r.Pattern, r.Regex, r.Flags, "")
		case rules.ReplaceRule:
			p.add(&p.replaces, r.Pattern, r.Regex, r.Flags, r.Replacement)
		}
	}
	return p
}

// ForFile builds a parser whose presets are the one registered for filename,
// or none. Custom rules, mode and enabled come from cfg.
func ForFile(filename string, cfg rules.Config, reg *rules.Registry) *Parser {
	cfg.Presets = nil
	if name, ok := reg.ResolveForFilename(filename); ok {
		cfg.Presets = []string{name}
	}
	return New(cfg, reg)
}

func (p *Parser) add(dst *[]*pattern, expr string, regex bool, flags, replacement string) {
	pat, err := compilePattern(expr, regex, flags, replacement)
	if err != nil {
		p.skipped = append(p.skipped, err)
		return
	}
	*dst = append(*dst, pat)
}

// Skipped returns the compile errors of patterns left out of the rule set.
func (p *Parser) Skipped() []error {
	return p.skipped
}

// Enabled reports whether the parser transforms text at all.
func (p *Parser) Enabled() bool {
	return p.enabled
}

// Parse normalizes text. It never fails: malformed markup degrades to
// partial output.
func (p *Parser) Parse(text string) string {
	if !p.enabled {
		return text
	}

	for _, r := range p.ranges {
		text = removeRange(text, r)
	}
	text = p.parseCommands(text)
	for _, pat := range p.excludes {
		text = pat.apply(text)
	}
	for _, pat := range p.replaces {
		text = pat.apply(text)
	}
	return cleanup(text)
}

// removeRange drops every block from r.Start to its matching r.End. A block
// without an end marker runs to the end of text.
func removeRange(text string, r rules.RangeRule) string {
	if r.Start == "" || r.End == "" {
		return text
	}

	var b strings.Builder
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], r.Start)
		if i < 0 {
			b.WriteString(text[pos:])
			break
		}
		start := pos + i
		b.WriteString(text[pos:start])
		pos = findRangeEnd(text, start+len(r.Start), r)
	}
	return b.String()
}

// findRangeEnd returns the index just past the end marker that closes a
// range opened before pos, or len(text).
func findRangeEnd(text string, pos int, r rules.RangeRule) int {
	depth := 1
	for pos < len(text) {
		end := strings.Index(text[pos:], r.End)
		if end < 0 {
			return len(text)
		}
		end += pos

		if r.IncludeNested {
			if s := strings.Index(text[pos:], r.Start); s >= 0 && pos+s < end {
				depth++
				pos += s + len(r.Start)
				continue
			}
		}

		depth--
		pos = end + len(r.End)
		if depth == 0 {
			return pos
		}
	}
	return len(text)
}
