package main

import "testing"

func typeKeys(e *lineEditor, keys string) editResult {
	res := editNone
	for i := 0; i < len(keys); i++ {
		res = e.feed(keys[i])
	}
	return res
}

func TestLineEditorInsertAndSubmit(t *testing.T) {
	e := newLineEditor(nil)
	typeKeys(e, "0 2")
	typeKeys(e, "\x1b[D") // left
	typeKeys(e, "1 ")
	if got := e.String(); got != "0 1 2" {
		t.Fatalf("line = %q, want %q", got, "0 1 2")
	}
	if res := e.feed('\r'); res != editSubmit {
		t.Fatalf("enter returned %v, want submit", res)
	}
	if len(e.history) != 1 || e.history[0] != "0 1 2" {
		t.Fatalf("history = %v", e.history)
	}
}

func TestLineEditorBlankLinesSkipHistory(t *testing.T) {
	e := newLineEditor(nil)
	typeKeys(e, "   \n")
	if len(e.history) != 0 {
		t.Fatalf("blank line recorded in history: %v", e.history)
	}
}

func TestLineEditorControlKeys(t *testing.T) {
	e := newLineEditor(nil)
	if res := e.feed(4); res != editEOF {
		t.Fatalf("ctrl+d on empty line returned %v, want EOF", res)
	}
	typeKeys(e, "abc")
	if res := e.feed(4); res != editNone {
		t.Fatalf("ctrl+d on non-empty line returned %v", res)
	}
	if res := e.feed(3); res != editCancel {
		t.Fatalf("ctrl+c returned %v, want cancel", res)
	}

	typeKeys(e, "\x01X") // ctrl+a then insert
	if got := e.String(); got != "Xabc" {
		t.Fatalf("line = %q, want Xabc", got)
	}
	typeKeys(e, "\x05\x7f") // ctrl+e then backspace
	if got := e.String(); got != "Xab" {
		t.Fatalf("line = %q, want Xab", got)
	}
}

func TestLineEditorWordEditing(t *testing.T) {
	e := newLineEditor(nil)
	typeKeys(e, "10 20 30")
	typeKeys(e, "\x17") // ctrl+w
	if got := e.String(); got != "10 20 " {
		t.Fatalf("after ctrl+w line = %q", got)
	}
	typeKeys(e, "\x1bb") // alt+b
	if e.cursor != 3 {
		t.Fatalf("alt+b cursor = %d, want 3", e.cursor)
	}
	typeKeys(e, "\x1b[3;5~") // ctrl+delete
	if got := e.String(); got != "10  " {
		t.Fatalf("after ctrl+delete line = %q", got)
	}
	typeKeys(e, "\x1b[H\x1b[1;5C") // home, ctrl+right
	if e.cursor != 2 {
		t.Fatalf("ctrl+right cursor = %d, want 2", e.cursor)
	}
	typeKeys(e, "\x1b[3~") // delete
	if got := e.String(); got != "10 " {
		t.Fatalf("after delete line = %q", got)
	}
}

func TestLineEditorHistory(t *testing.T) {
	e := newLineEditor([]string{"0 0", "1 1"})
	typeKeys(e, "draft")

	typeKeys(e, "\x1b[A")
	if got := e.String(); got != "1 1" {
		t.Fatalf("first up = %q", got)
	}
	typeKeys(e, "\x1b[A\x1b[A") // second up stops at the oldest entry
	if got := e.String(); got != "0 0" {
		t.Fatalf("second up = %q", got)
	}
	typeKeys(e, "\x1b[B")
	if got := e.String(); got != "1 1" {
		t.Fatalf("down = %q", got)
	}
	typeKeys(e, "\x1b[B")
	if got := e.String(); got != "draft" {
		t.Fatalf("down past newest = %q, want draft restored", got)
	}
	if e.cursor != len("draft") {
		t.Fatalf("cursor = %d after restoring draft", e.cursor)
	}
}

func TestTrimTrailingNewline(t *testing.T) {
	for in, want := range map[string]string{
		"0 1\n":   "0 1",
		"0 1\r\n": "0 1",
		"0 1":     "0 1",
		"":        "",
	} {
		if got := trimTrailingNewline(in); got != want {
			t.Errorf("trimTrailingNewline(%q) = %q, want %q", in, got, want)
		}
	}
}
