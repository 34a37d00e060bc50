package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// source is text to read and where it came from.
type source struct {
	text string
	// path is the absolute file path, empty for stdin and the clipboard.
	path string
	name string
}

// lineRange selects lines 1-based and inclusive. A zero End reads to the
// last line.
type lineRange struct {
	Start int
	End   int
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// sourceFromArgs picks the input: the clipboard, a file, or stdin when the
// argument is "-" or stdin is a pipe.
func sourceFromArgs(args []string, fromClipboard bool) (*source, error) {
	if fromClipboard {
		if len(args) > 0 {
			return nil, errors.New("cannot read from both the clipboard and a file")
		}
		text, err := clipboard.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("unable to read clipboard: %w", err)
		}
		return &source{text: text, name: "clipboard"}, nil
	}

	if len(args) == 0 || args[0] == "-" {
		if len(args) == 0 {
			pipe, err := stdinIsPipe()
			if err != nil {
				return nil, err
			}
			if !pipe {
				return nil, errors.New("missing source: pass a file, - for stdin, or --clipboard")
			}
		}
		return readSource(os.Stdin, "", "stdin")
	}

	return sourceFromFile(args[0])
}

func sourceFromFile(path string) (*source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return readSource(f, abs, filepath.Base(abs))
}

func readSource(r io.Reader, path, name string) (*source, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read from reader: %w", err)
	}
	return &source{text: string(b), path: path, name: name}, nil
}

// parseLineRange parses "A:B", "A:", ":B" or "A".
func parseLineRange(s string) (lineRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return lineRange{}, nil
	}

	parse := func(v string) (int, error) {
		if v == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, fmt.Errorf("invalid line number %q", v)
		}
		return n, nil
	}

	startStr, endStr, found := strings.Cut(s, ":")
	start, err := parse(startStr)
	if err != nil {
		return lineRange{}, err
	}
	if !found {
		return lineRange{Start: start, End: start}, nil
	}
	end, err := parse(endStr)
	if err != nil {
		return lineRange{}, err
	}
	if end != 0 && start > end {
		return lineRange{}, fmt.Errorf("invalid line range %q: start is after end", s)
	}
	return lineRange{Start: start, End: end}, nil
}

// apply returns the selected lines of text.
func (r lineRange) apply(text string) string {
	if r.Start <= 1 && r.End == 0 {
		return text
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := max(r.Start, 1) - 1
	if start >= len(lines) {
		return ""
	}
	end := len(lines)
	if r.End != 0 && r.End < end {
		end = r.End
	}
	return strings.Join(lines[start:end], "\n")
}
