package main

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/modelfile"
)

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.Discard())
}

// trainingData alternates between a class that only emits low symbols and
// one that only emits high symbols.
func trainingData() string {
	var b strings.Builder
	for i := range 12 {
		b.WriteString("low 0 1 0 1 1 0 0 1\n")
		if i%2 == 0 {
			b.WriteString("high 3 2 3 3 2 2 3 2\n")
		} else {
			b.WriteString("high 2 3 3 2 3 2 2 3\n")
		}
	}
	return b.String()
}

func TestRunTrainWritesUsableModel(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "levels.txt")
	if err := os.WriteFile(data, []byte(trainingData()), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	out := filepath.Join(dir, "levels.yaml")

	opts := trainOptions{
		data:        data,
		out:         out,
		name:        "levels",
		states:      2,
		topology:    "ergodic",
		iterations:  30,
		tolerance:   1e-6,
		pseudoCount: 1e-3,
		seed:        7,
		threshold:   true,
		quiet:       true,
	}
	if err := runTrain(testContext(), opts); err != nil {
		t.Fatalf("runTrain error = %v", err)
	}

	doc, err := modelfile.Load(out)
	if err != nil {
		t.Fatalf("load trained model: %v", err)
	}
	if doc.Kind != modelfile.KindHMMClassifier || doc.Classes() != 2 || doc.Threshold == nil {
		t.Fatalf("unexpected document: kind=%s classes=%d threshold=%v", doc.Kind, doc.Classes(), doc.Threshold != nil)
	}
	if doc.Training == nil || doc.Training.Sequences != 24 {
		t.Fatalf("training metadata missing: %+v", doc.Training)
	}

	engine, err := inference.Loader{NoThreshold: true}.Build(doc)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	for seq, want := range map[string]string{"0 0 1 0 1": "low", "3 3 2 3 2": "high"} {
		req, err := parseRequest(seq, inference.InputSymbols)
		if err != nil {
			t.Fatalf("parseRequest: %v", err)
		}
		res, err := engine.Classify(context.Background(), req)
		if err != nil {
			t.Fatalf("classify %q: %v", seq, err)
		}
		if res.Label != want {
			t.Errorf("classify %q = %s, want %s", seq, res.Label, want)
		}
	}
}

func TestRunTrainRejectsSmallAlphabet(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "levels.txt")
	if err := os.WriteFile(data, []byte(trainingData()), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	opts := trainOptions{data: data, out: filepath.Join(dir, "m.json"), states: 2, symbols: 2, quiet: true}
	if err := runTrain(testContext(), opts); err == nil {
		t.Fatalf("expected error when --symbols is smaller than the data alphabet")
	}
}

func TestRunRequestsKeepsOrder(t *testing.T) {
	reqs := make([]*inference.Request, 20)
	for i := range reqs {
		reqs[i] = &inference.Request{Symbols: []int{i}}
	}
	got, err := runRequests(context.Background(), reqs, 3, func(_ context.Context, r *inference.Request) (int, error) {
		return r.Symbols[0] * 2, nil
	})
	if err != nil {
		t.Fatalf("runRequests error = %v", err)
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("result %d = %d, want %d", i, v, i*2)
		}
	}

	boom := errors.New("boom")
	_, err = runRequests(context.Background(), reqs, 2, func(_ context.Context, r *inference.Request) (int, error) {
		if r.Symbols[0] == 5 {
			return 0, boom
		}
		return 0, nil
	})
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "sequence 6") {
		t.Fatalf("expected wrapped boom for sequence 6, got %v", err)
	}
}

func TestPrinterClassificationText(t *testing.T) {
	info := inference.ModelInfo{ID: "coins", Labels: []string{"fair", "loaded"}}
	res := &inference.Result{
		Class:                  1,
		Label:                  "loaded",
		Probabilities:          []float64{0.25, 0.75},
		LogLikelihoods:         []float64{-4.5, math.Inf(-1)},
		HasThreshold:           true,
		ThresholdLogLikelihood: -9,
		Path:                   []int{0, 1, 1},
	}
	var buf bytes.Buffer
	if err := newPrinter(&buf, info, false).classification(1, res); err != nil {
		t.Fatalf("classification: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[1] loaded  p=0.7500", "* loaded", "ll=-Inf", "threshold", "path: 0 1 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrinterClassificationJSON(t *testing.T) {
	info := inference.ModelInfo{ID: "coins"}
	res := &inference.Result{
		Class:          -1,
		Label:          "rejected",
		Rejected:       true,
		Probabilities:  []float64{0, 0},
		LogLikelihoods: []float64{math.Inf(-1), math.Inf(-1)},
	}
	var buf bytes.Buffer
	if err := newPrinter(&buf, info, true).classification(3, res); err != nil {
		t.Fatalf("classification: %v", err)
	}
	var rec struct {
		Index          int      `json:"index"`
		Model          string   `json:"model"`
		Rejected       bool     `json:"rejected"`
		LogLikelihoods []string `json:"log_likelihoods"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec.Index != 3 || rec.Model != "coins" || !rec.Rejected {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.LogLikelihoods) != 2 || rec.LogLikelihoods[0] != "-inf" {
		t.Fatalf("-Inf not encoded as \"-inf\": %v", rec.LogLikelihoods)
	}
}

func TestPrinterPathsMarksImpossible(t *testing.T) {
	ev := &inference.Evaluation{Classes: []inference.ClassEvaluation{
		{Class: 0, Label: "fair", Path: []int{0, 0}, PathLogScore: -1.5},
		{Class: 1, Label: "loaded", PathLogScore: math.Inf(-1)},
	}}
	var buf bytes.Buffer
	if err := newPrinter(&buf, inference.ModelInfo{}, false).paths(1, ev); err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(buf.String(), "(impossible)") || !strings.Contains(buf.String(), "0 0") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
