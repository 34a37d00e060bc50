package rules

import (
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// Preset is a named bundle of rules selected by file name patterns.
type Preset struct {
	Name         string
	Description  string
	FilePatterns []string
	Rules        []Rule
}

// Registry holds presets by name. Presets keep the position of their first
// registration, which decides the winner in ResolveForFilename.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	presets map[string]Preset
	globs   map[string][]*regexp2.Regexp
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		presets: make(map[string]Preset),
		globs:   make(map[string][]*regexp2.Regexp),
	}
}

// DefaultRegistry returns a registry holding the built-in presets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(LaTeX())
	return r
}

// Register inserts or replaces a preset by name.
func (r *Registry) Register(p Preset) {
	globs := make([]*regexp2.Regexp, 0, len(p.FilePatterns))
	for _, pattern := range p.FilePatterns {
		if re, err := compileGlob(pattern); err == nil {
			globs = append(globs, re)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[p.Name]; !exists {
		r.order = append(r.order, p.Name)
	}
	r.presets[p.Name] = p
	r.globs[p.Name] = globs
}

// Lookup returns the preset registered under name.
func (r *Registry) Lookup(name string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	return p, ok
}

// Names returns preset names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Presets returns all presets in registration order.
func (r *Registry) Presets() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Preset, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.presets[name])
	}
	return out
}

// ResolveForFilename returns the first preset, in registration order, with a
// file pattern matching filename.
func (r *Registry) ResolveForFilename(filename string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		for _, re := range r.globs[name] {
			if ok, err := re.MatchString(filename); err == nil && ok {
				return name, true
			}
		}
	}
	return "", false
}

// compileGlob turns a glob into an anchored, case-insensitive expression.
// Only * and ? are special.
func compileGlob(glob string) (*regexp2.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A`)
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp2.Escape(string(r)))
		}
	}
	b.WriteString(`\z`)
	return regexp2.Compile(b.String(), regexp2.IgnoreCase|regexp2.Singleline)
}
