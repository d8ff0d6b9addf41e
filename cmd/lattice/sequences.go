package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samcharles93/lattice/internal/inference"
)

const maxLineBytes = 4 << 20

var (
	errSyntax    = errors.New("invalid sequence")
	errEmptyLine = fmt.Errorf("%w: empty", errSyntax)
)

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// parseSymbols reads a discrete sequence written as "0 1 2" or "0,1,2".
func parseSymbols(s string) ([]int, error) {
	fields := splitFields(s)
	if len(fields) == 0 {
		return nil, errEmptyLine
	}
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: symbol %d: %q is not an integer", errSyntax, i, f)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: symbol %d: %d is negative", errSyntax, i, v)
		}
		out[i] = v
	}
	return out, nil
}

// parseVectors reads a continuous sequence with observations separated by
// ";" and components by spaces or commas, e.g. "0.1 2; 0.3 1.5".
func parseVectors(s string) ([][]float64, error) {
	var out [][]float64
	for i, part := range strings.Split(s, ";") {
		fields := splitFields(part)
		if len(fields) == 0 {
			continue
		}
		vec := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: observation %d: %q is not a number", errSyntax, i, f)
			}
			vec[j] = v
		}
		if len(out) > 0 && len(vec) != len(out[0]) {
			return nil, fmt.Errorf("%w: observation %d has %d components, want %d", errSyntax, i, len(vec), len(out[0]))
		}
		out = append(out, vec)
	}
	if len(out) == 0 {
		return nil, errEmptyLine
	}
	return out, nil
}

// parseRequest turns one line into a request for a model consuming input.
func parseRequest(line string, input inference.Input) (*inference.Request, error) {
	switch input {
	case inference.InputVectors:
		v, err := parseVectors(line)
		if err != nil {
			return nil, err
		}
		return &inference.Request{Vectors: v}, nil
	default:
		s, err := parseSymbols(line)
		if err != nil {
			return nil, err
		}
		return &inference.Request{Symbols: s}, nil
	}
}

func skipLine(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

// readRequests reads one sequence per line. Blank lines and lines starting
// with "#" are skipped.
func readRequests(r io.Reader, input inference.Input) ([]*inference.Request, error) {
	var out []*inference.Request
	sc := newLineScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if skipLine(sc.Text()) {
			continue
		}
		req, err := parseRequest(sc.Text(), input)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, req)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// labeledData is a training set read by readLabeled. Labels index Names in
// order of first appearance.
type labeledData struct {
	Sequences [][]int
	Labels    []int
	Names     []string
}

// Symbols returns one past the largest symbol seen.
func (d *labeledData) Symbols() int {
	maxSym := -1
	for _, s := range d.Sequences {
		for _, v := range s {
			maxSym = max(maxSym, v)
		}
	}
	return maxSym + 1
}

// readLabeled reads training lines of the form "label 0 1 2 ...". The label
// is the first whitespace-separated field.
func readLabeled(r io.Reader) (*labeledData, error) {
	data := &labeledData{}
	index := map[string]int{}
	sc := newLineScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if skipLine(line) {
			continue
		}
		sep := strings.IndexAny(line, " \t")
		if sep < 0 {
			return nil, fmt.Errorf("line %d: want \"label symbols...\"", lineNo)
		}
		name, rest := line[:sep], line[sep+1:]
		seq, err := parseSymbols(rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		c, seen := index[name]
		if !seen {
			c = len(data.Names)
			index[name] = c
			data.Names = append(data.Names, name)
		}
		data.Sequences = append(data.Sequences, seq)
		data.Labels = append(data.Labels, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(data.Sequences) == 0 {
		return nil, errors.New("no training sequences")
	}
	return data, nil
}
