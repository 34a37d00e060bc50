package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseCommands rewrites every registered command in a single left-to-right
// scan. Unknown commands pass through unchanged.
func (p *Parser) parseCommands(text string) string {
	if len(p.commands) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for pos < len(text) {
		i := strings.IndexByte(text[pos:], '\\')
		if i < 0 {
			b.WriteString(text[pos:])
			break
		}
		b.WriteString(text[pos : pos+i])
		pos += i

		if out, end, ok := p.parseCommand(text, pos); ok {
			b.WriteString(out)
			pos = end
			continue
		}
		b.WriteByte('\\')
		pos++
	}
	return b.String()
}

// parseCommand reads the command starting at the backslash at pos. It returns
// the rendered output and the index after the last consumed byte.
func (p *Parser) parseCommand(text string, pos int) (string, int, bool) {
	idx := pos + 1
	for idx < len(text) && isASCIILetter(text[idx]) {
		idx++
	}
	name := text[pos+1 : idx]
	if name == "" {
		return "", 0, false
	}
	rule, ok := p.commands[name]
	if !ok {
		return "", 0, false
	}

	var b strings.Builder
	b.WriteString(rule.Prefix)

	idx = skipSpace(text, idx)
	if rule.HasOptionalArg && idx < len(text) && text[idx] == '[' {
		if content, end, ok := extractBalanced(text, idx, '[', ']'); ok {
			if rule.KeepOptionalArg {
				b.WriteString(p.parseCommands(content))
			}
			idx = skipSpace(text, end)
		}
	}

	for i := 0; i < rule.ArgCount; i++ {
		idx = skipSpace(text, idx)
		if idx >= len(text) || text[idx] != '{' {
			break
		}
		content, end, ok := extractBalanced(text, idx, '{', '}')
		if !ok {
			break
		}
		if rule.Keeps(i) {
			b.WriteString(p.parseCommands(content))
		}
		idx = end
	}

	b.WriteString(rule.Suffix)
	return b.String(), idx, true
}

// extractBalanced returns the content between the open delimiter at pos and
// its matching close, and the index after the close. A backslash escapes the
// byte that follows it.
func extractBalanced(text string, pos int, open, closing byte) (string, int, bool) {
	depth := 1
	for idx := pos + 1; idx < len(text); idx++ {
		switch c := text[idx]; {
		case c == '\\' && idx+1 < len(text):
			idx++
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return text[pos+1 : idx], idx + 1, true
			}
		}
	}
	return "", 0, false
}

func skipSpace(text string, pos int) int {
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
