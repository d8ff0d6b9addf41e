package api

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/modelfile"
)

type EngineProvider interface {
	WithEngine(ctx context.Context, modelID string, fn func(engine inference.Engine) error) error
	ListModels() ([]string, error)
}

type EngineProviderConfig struct {
	DefaultModelPath string
	ModelsPath       string
	Loader           inference.Loader
}

// CachedEngineProvider resolves model ids to documents on disk and keeps
// every loaded engine for the life of the process. Engines are read-only,
// so callers share them without locking.
type CachedEngineProvider struct {
	cfg   EngineProviderConfig
	mu    sync.Mutex
	cache map[string]*engineEntry
}

type engineEntry struct {
	once   sync.Once
	engine inference.Engine
	err    error
}

const EnvModelsDir = "LATTICE_MODELS_DIR"

func NewCachedEngineProvider(cfg EngineProviderConfig) *CachedEngineProvider {
	return &CachedEngineProvider{
		cfg:   cfg,
		cache: make(map[string]*engineEntry),
	}
}

func (p *CachedEngineProvider) WithEngine(ctx context.Context, modelID string, fn func(engine inference.Engine) error) error {
	path, err := p.resolveModelPath(modelID)
	if err != nil {
		return err
	}
	engine, err := p.getOrLoad(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(engine)
}

// ListModels returns the ids of every model the provider can serve.
func (p *CachedEngineProvider) ListModels() ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	add := func(path string) {
		id := modelIDFromPath(path)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if p.cfg.DefaultModelPath != "" {
		add(p.cfg.DefaultModelPath)
	}
	if dir := p.modelsDir(); dir != "" {
		models, err := discoverModels(dir)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			add(m)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases every cached engine.
func (p *CachedEngineProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for path, entry := range p.cache {
		if entry.engine != nil {
			_ = entry.engine.Close()
		}
		delete(p.cache, path)
	}
	return nil
}

func (p *CachedEngineProvider) getOrLoad(path string) (inference.Engine, error) {
	p.mu.Lock()
	entry, ok := p.cache[path]
	if !ok {
		entry = &engineEntry{}
		p.cache[path] = entry
	}
	p.mu.Unlock()

	entry.once.Do(func() {
		result, err := p.cfg.Loader.Load(path)
		if err != nil {
			entry.err = err
			return
		}
		entry.engine = result.Engine
	})
	if entry.err != nil {
		p.mu.Lock()
		if p.cache[path] == entry {
			delete(p.cache, path)
		}
		p.mu.Unlock()
		return nil, entry.err
	}
	return entry.engine, nil
}

func (p *CachedEngineProvider) resolveModelPath(modelID string) (string, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID != "" {
		if p.cfg.DefaultModelPath != "" && modelID == modelIDFromPath(p.cfg.DefaultModelPath) {
			return filepath.Clean(p.cfg.DefaultModelPath), nil
		}
		if looksLikePath(modelID) && fileExists(modelID) {
			return filepath.Clean(modelID), nil
		}
		modelsDir := p.modelsDir()
		if modelsDir == "" || strings.Contains(modelID, string(filepath.Separator)) {
			return "", modelNotFoundError{id: modelID}
		}
		if resolved := resolveInDir(modelsDir, modelID); resolved != "" {
			return resolved, nil
		}
		return "", modelNotFoundError{id: modelID, where: modelsDir}
	}

	if p.cfg.DefaultModelPath != "" {
		return filepath.Clean(p.cfg.DefaultModelPath), nil
	}
	modelsDir := p.modelsDir()
	if modelsDir == "" {
		return "", newInvalidRequest("model is required")
	}
	models, err := discoverModels(modelsDir)
	if err != nil {
		return "", err
	}
	if len(models) == 1 {
		return models[0], nil
	}
	if len(models) == 0 {
		return "", fmt.Errorf("%w: no models found in %s", ErrModelNotFound, modelsDir)
	}
	return "", newInvalidRequest(fmt.Sprintf("multiple models found in %s; specify model", modelsDir))
}

func (p *CachedEngineProvider) modelsDir() string {
	if strings.TrimSpace(p.cfg.ModelsPath) != "" {
		return strings.TrimSpace(p.cfg.ModelsPath)
	}
	return strings.TrimSpace(os.Getenv(EnvModelsDir))
}

func looksLikePath(v string) bool {
	return strings.Contains(v, string(filepath.Separator)) || modelfile.IsModelFile(v)
}

func resolveInDir(dir, name string) string {
	if dir == "" {
		return ""
	}
	if modelfile.IsModelFile(name) {
		if cand := filepath.Join(dir, name); fileExists(cand) {
			return cand
		}
		return ""
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if cand := filepath.Join(dir, name+ext); fileExists(cand) {
			return cand
		}
	}
	return ""
}

func discoverModels(dir string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("models path is not a directory: %s", dir)
	}
	return modelfile.Discover(dir)
}

func modelIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
