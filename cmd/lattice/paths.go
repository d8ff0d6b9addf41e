package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samcharles93/lattice/internal/api"
	"github.com/samcharles93/lattice/internal/modelfile"
)

const (
	envLatticeTrainOutDir = "LATTICE_TRAIN_OUT_DIR"
	envLatticeModelsDir   = api.EnvModelsDir
)

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// resolveTrainOut picks where train writes its model document. Without
// --out the document is named after the data file and placed in outDir,
// LATTICE_TRAIN_OUT_DIR or ./out, in that order.
func resolveTrainOut(dataPath, outFlag, outDir string) (string, bool, error) {
	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		outPath := filepath.Clean(outFlag)
		if !modelfile.IsModelFile(outPath) {
			return "", false, fmt.Errorf("output must end in .json, .yaml or .yml: %q", outFlag)
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return "", false, err
		}
		return outPath, false, nil
	}

	base := filepath.Base(filepath.Clean(dataPath))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", true, fmt.Errorf("invalid training data path: %q", dataPath)
	}

	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		outDir = strings.TrimSpace(os.Getenv(envLatticeTrainOutDir))
	}
	if outDir == "" {
		outDir = filepath.Join(".", "out")
	}

	outPath := filepath.Join(outDir, base+".json")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", true, err
	}
	return outPath, true, nil
}

func resolveModelPath(modelFlag string, modelsPath string, stdin io.Reader, stderr io.Writer) (string, error) {
	modelFlag = strings.TrimSpace(modelFlag)
	if modelFlag != "" {
		return filepath.Clean(modelFlag), nil
	}

	modelsDir := resolveModelsDir(modelsPath)
	if modelsDir == "" {
		return "", fmt.Errorf("--model or --models-path is required unless %s is set", envLatticeModelsDir)
	}

	models, err := discoverModels(modelsDir)
	if err != nil {
		return "", err
	}
	switch len(models) {
	case 0:
		return "", fmt.Errorf("no model documents found in %s", modelsDir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "lattice: using model %s\n", models[0])
		return models[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple models found in %s but stdin is not interactive; set --model",
				modelsDir,
			)
		}
		return selectModelInteractively(modelsDir, models, stdin, stderr)
	}
}

func resolveModelsDir(flag string) string {
	dir := strings.TrimSpace(flag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envLatticeModelsDir))
	}
	return dir
}

func discoverModels(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("models directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("models path is not a directory: %s", dir)
	}
	return modelfile.Discover(dir)
}

func selectModelInteractively(modelsDir string, models []string, stdin io.Reader, stderr io.Writer) (string, error) {
	if len(models) == 0 {
		return "", fmt.Errorf("no models available in %s", modelsDir)
	}

	_, _ = fmt.Fprintf(stderr, "lattice: select a model from %s\n", modelsDir)
	for i, m := range models {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, modelDisplayName(modelsDir, m))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "lattice: enter selection [1-%d]: ", len(models))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --model")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(models) {
			_, _ = fmt.Fprintf(stderr, "lattice: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --model")
			}
			continue
		}
		return models[idx-1], nil
	}
}

func modelDisplayName(modelsDir, modelPath string) string {
	rel, err := filepath.Rel(modelsDir, modelPath)
	if err != nil || rel == "." {
		return filepath.Base(modelPath)
	}
	return rel
}

func isTTY() bool {
	return isTerminal(os.Stdin)
}
