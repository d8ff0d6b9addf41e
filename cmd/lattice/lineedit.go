package main

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// editResult tells the terminal loop what to do after a key.
type editResult int

const (
	editNone editResult = iota
	editRedraw
	editSubmit
	editCancel
	editEOF
)

// lineEditor is the key handling behind readInteractiveLine: an emacs-style
// single line buffer with history. It knows nothing about the terminal.
type lineEditor struct {
	line   []byte
	cursor int

	history      []string
	histPos      int
	histBrowsing bool
	histDraft    string

	escState int
	escBuf   strings.Builder
}

func newLineEditor(history []string) *lineEditor {
	return &lineEditor{
		line:    make([]byte, 0, 256),
		history: history,
		histPos: len(history),
	}
}

func (e *lineEditor) String() string { return string(e.line) }

// feed processes one input byte.
func (e *lineEditor) feed(b byte) editResult {
	switch e.escState {
	case 1:
		e.escState = 0
		switch b {
		case '[':
			e.escState = 2
			e.escBuf.Reset()
			return editNone
		case 'b', 'B': // Alt+b
			return e.moveWordLeft()
		case 'f', 'F': // Alt+f
			return e.moveWordRight()
		case 127: // Alt+Backspace
			return e.deleteWordBack()
		}
		return editNone
	case 2:
		e.escBuf.WriteByte(b)
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.escState = 0
			return e.handleCSI(e.escBuf.String())
		}
		return editNone
	}

	switch b {
	case 27: // ESC
		e.escState = 1
	case '\r', '\n':
		if strings.TrimSpace(string(e.line)) != "" {
			e.history = append(e.history, string(e.line))
		}
		return editSubmit
	case 3: // Ctrl+C
		return editCancel
	case 4: // Ctrl+D
		if len(e.line) == 0 {
			return editEOF
		}
	case 127, 8: // backspace
		if e.cursor > 0 {
			e.line = append(e.line[:e.cursor-1], e.line[e.cursor:]...)
			e.cursor--
			return editRedraw
		}
	case 1: // Ctrl+A
		e.cursor = 0
		return editRedraw
	case 5: // Ctrl+E
		e.cursor = len(e.line)
		return editRedraw
	case 23: // Ctrl+W
		return e.deleteWordBack()
	default:
		if b >= 32 {
			e.line = append(e.line, 0)
			copy(e.line[e.cursor+1:], e.line[e.cursor:])
			e.line[e.cursor] = b
			e.cursor++
			return editRedraw
		}
	}
	return editNone
}

func (e *lineEditor) handleCSI(seq string) editResult {
	switch seq {
	case "A": // up
		if len(e.history) == 0 {
			return editNone
		}
		if !e.histBrowsing {
			e.histDraft = string(e.line)
			e.histBrowsing = true
			e.histPos = len(e.history)
		}
		if e.histPos == 0 {
			return editNone
		}
		e.histPos--
		e.setLine(e.history[e.histPos])
	case "B": // down
		if !e.histBrowsing {
			return editNone
		}
		if e.histPos < len(e.history)-1 {
			e.histPos++
			e.setLine(e.history[e.histPos])
		} else {
			e.histPos = len(e.history)
			e.setLine(e.histDraft)
			e.histBrowsing = false
		}
	case "D":
		if e.cursor == 0 {
			return editNone
		}
		e.cursor--
	case "C":
		if e.cursor >= len(e.line) {
			return editNone
		}
		e.cursor++
	case "H":
		e.cursor = 0
	case "F":
		e.cursor = len(e.line)
	case "3~":
		if e.cursor >= len(e.line) {
			return editNone
		}
		e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
	case "1;5D", "5D":
		return e.moveWordLeft()
	case "1;5C", "5C":
		return e.moveWordRight()
	case "3;5~":
		return e.deleteWordForward()
	default:
		return editNone
	}
	return editRedraw
}

func (e *lineEditor) setLine(s string) {
	e.line = append(e.line[:0], s...)
	e.cursor = len(e.line)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func (e *lineEditor) wordStart() int {
	i := e.cursor
	for i > 0 && isSpace(e.line[i-1]) {
		i--
	}
	for i > 0 && !isSpace(e.line[i-1]) {
		i--
	}
	return i
}

func (e *lineEditor) wordEnd() int {
	i := e.cursor
	for i < len(e.line) && isSpace(e.line[i]) {
		i++
	}
	for i < len(e.line) && !isSpace(e.line[i]) {
		i++
	}
	return i
}

func (e *lineEditor) moveWordLeft() editResult {
	if e.cursor == 0 {
		return editNone
	}
	e.cursor = e.wordStart()
	return editRedraw
}

func (e *lineEditor) moveWordRight() editResult {
	if e.cursor >= len(e.line) {
		return editNone
	}
	e.cursor = e.wordEnd()
	return editRedraw
}

func (e *lineEditor) deleteWordBack() editResult {
	if e.cursor == 0 {
		return editNone
	}
	start := e.wordStart()
	e.line = append(e.line[:start], e.line[e.cursor:]...)
	e.cursor = start
	return editRedraw
}

func (e *lineEditor) deleteWordForward() editResult {
	if e.cursor >= len(e.line) {
		return editNone
	}
	end := e.wordEnd()
	e.line = append(e.line[:e.cursor], e.line[end:]...)
	return editRedraw
}

var stdinLines = bufio.NewReader(os.Stdin)

// readPlainLine reads one line from a non-terminal stdin. It returns io.EOF
// only when no more input is available.
func readPlainLine() (string, error) {
	s, err := stdinLines.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if s == "" {
			return "", io.EOF
		}
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
