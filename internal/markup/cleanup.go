package markup

import (
	"regexp"
	"strings"
)

var (
	blankRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// cleanup collapses horizontal whitespace, trims every line, keeps at most
// one empty line between paragraphs and trims the result.
func cleanup(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// SplitLines groups text into chunks of at most threshold lines. Text with
// threshold lines or fewer is a single chunk. Blank chunks are dropped.
func SplitLines(text string, threshold int) []string {
	lines := strings.Split(text, "\n")
	if threshold <= 0 || len(lines) <= threshold {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	chunks := make([]string, 0, len(lines)/threshold+1)
	for start := 0; start < len(lines); start += threshold {
		end := min(start+threshold, len(lines))
		chunk := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
