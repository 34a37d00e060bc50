// Package rules defines the declarative text-normalization rules, the rule-set
// configuration and the preset registry used by the markup parser.
package rules

import "fmt"

// Kind identifies the variant of a Rule.
type Kind int

const (
	// KindCommand is a backslash command with brace-delimited arguments.
	KindCommand Kind = iota
	// KindRange is a block removed between a start and an end marker.
	KindRange
	// KindExclude is a pattern whose matches are deleted.
	KindExclude
	// KindReplace is a pattern whose matches are substituted.
	KindReplace
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindRange:
		return "range"
	case KindExclude:
		return "exclude"
	case KindReplace:
		return "replace"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "command":
		return KindCommand, nil
	case "range", "range_exclude":
		return KindRange, nil
	case "exclude", "simple_exclude":
		return KindExclude, nil
	case "replace":
		return KindReplace, nil
	default:
		return 0, fmt.Errorf("unknown rule type %q", s)
	}
}

// Rule is one of CommandRule, RangeRule, ExcludeRule or ReplaceRule.
type Rule interface {
	Kind() Kind
	rule()
}

// CommandRule describes a command such as \textbf{...}.
//
// ArgMask[i] decides whether the i-th required argument is kept. Missing mask
// entries discard the argument.
type CommandRule struct {
	Name            string
	ArgCount        int
	ArgMask         []bool
	HasOptionalArg  bool
	KeepOptionalArg bool
	Prefix          string
	Suffix          string
}

// RangeRule removes everything from Start to the matching End, markers
// included. Markers are literal substrings.
type RangeRule struct {
	Start         string
	End           string
	IncludeNested bool
}

// ExcludeRule deletes every match of Pattern. Pattern is a literal unless
// Regex is set. An empty Flags means "g".
type ExcludeRule struct {
	Pattern string
	Regex   bool
	Flags   string
}

// ReplaceRule substitutes matches of Pattern with Replacement.
type ReplaceRule struct {
	Pattern     string
	Regex       bool
	Flags       string
	Replacement string
}

func (CommandRule) Kind() Kind { return KindCommand }
func (RangeRule) Kind() Kind   { return KindRange }
func (ExcludeRule) Kind() Kind { return KindExclude }
func (ReplaceRule) Kind() Kind { return KindReplace }

func (CommandRule) rule() {}
func (RangeRule) rule()   {}
func (ExcludeRule) rule() {}
func (ReplaceRule) rule() {}

// Keeps reports whether the i-th required argument is kept.
func (c CommandRule) Keeps(i int) bool {
	return i < len(c.ArgMask) && c.ArgMask[i]
}

// Keep returns a command rule that keeps all of its n arguments.
func Keep(name string, n int) CommandRule {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return CommandRule{Name: name, ArgCount: n, ArgMask: mask}
}

// Drop returns a command rule that discards all of its n arguments.
func Drop(name string, n int) CommandRule {
	return CommandRule{Name: name, ArgCount: n, ArgMask: make([]bool, n)}
}

// Literal returns a replace rule for a literal pattern.
func Literal(pattern, replacement string) ReplaceRule {
	return ReplaceRule{Pattern: pattern, Replacement: replacement}
}
