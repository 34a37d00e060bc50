package markup

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single rule application. A rule that times out
// leaves its input unchanged.
const matchTimeout = 2 * time.Second

type pattern struct {
	re          *regexp2.Regexp
	replacement string
	count       int
}

// compilePattern compiles a rule pattern. Flags follow the usual letters:
// g replaces every match, i ignores case, m anchors ^ and $ at lines and s
// lets . match newlines. Empty flags mean "g".
func compilePattern(expr string, regex bool, flags, replacement string) (*pattern, error) {
	if !regex {
		expr = regexp2.Escape(expr)
	}
	if flags == "" {
		flags = "g"
	}

	opts := regexp2.None
	count := 1
	for _, f := range flags {
		switch f {
		case 'g':
			count = -1
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}

	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", expr, err)
	}
	re.MatchTimeout = matchTimeout

	return &pattern{re: re, replacement: replacement, count: count}, nil
}

func (p *pattern) apply(text string) string {
	out, err := p.re.Replace(text, p.replacement, -1, p.count)
	if err != nil {
		return text
	}
	return out
}
