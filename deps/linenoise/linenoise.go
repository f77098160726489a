package linenoise

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
)

// LineNoise is the line editor behind the interactive prompt.
type LineNoise struct {
	*liner.State
	out io.Writer
}

// New puts the terminal in raw mode; callers must Close it.
func New() *LineNoise {
	ln := &LineNoise{State: liner.NewLiner(), out: os.Stdout}
	ln.SetCtrlCAborts(true)
	return ln
}

func (ln *LineNoise) HistoryLoad(filepath string) error {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return err
	}
	_, err = ln.ReadHistory(bytes.NewReader(content))
	return err
}

func (ln *LineNoise) HistorySave(filepath string) error {
	var buf bytes.Buffer
	_, err := ln.WriteHistory(&buf)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, buf.Bytes(), 0600)
}

func (ln *LineNoise) ClearScreen() error {
	_, err := fmt.Fprint(ln.out, "\x1b[H\x1b[2J")
	return err
}

// SetWords completes the first word of a line from words, ignoring case.
func (ln *LineNoise) SetWords(words []string) {
	ln.SetCompleter(firstWord(words))
}

func firstWord(words []string) liner.Completer {
	return func(line string) []string {
		if strings.ContainsAny(line, " \t") {
			return nil
		}
		var out []string
		for _, w := range words {
			if strings.HasPrefix(strings.ToLower(w), strings.ToLower(line)) {
				out = append(out, w)
			}
		}
		return out
	}
}
