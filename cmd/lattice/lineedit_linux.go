//go:build linux

package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var interactiveHistory []string

func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		return readPlainLine()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return "", err
	}
	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &newState); err != nil {
		return "", err
	}
	defer func() {
		_ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState)
	}()

	fmt.Print(prompt)
	ed := newLineEditor(interactiveHistory)
	var buf [16]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return "", err
		}
		for _, b := range buf[:n] {
			switch ed.feed(b) {
			case editRedraw:
				redrawLine(prompt, ed)
			case editSubmit:
				fmt.Print("\r\n")
				interactiveHistory = ed.history
				return ed.String(), nil
			case editCancel:
				fmt.Print("^C\r\n")
				return "", io.EOF
			case editEOF:
				fmt.Print("\r\n")
				return "", io.EOF
			}
		}
	}
}

func redrawLine(prompt string, ed *lineEditor) {
	fmt.Printf("\r%s%s", prompt, string(ed.line))
	fmt.Print("\x1b[K")
	if ed.cursor < len(ed.line) {
		fmt.Printf("\r%s%s", prompt, string(ed.line[:ed.cursor]))
	}
}
