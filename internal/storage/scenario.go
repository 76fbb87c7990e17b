package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

// Scenario operations (filesystem-backed)

// ListScenarios maps scenario name to its path under DATA_DIR/scenarios.
// Files that fail to parse are logged and skipped.
func (r *RedisStorage) ListScenarios(ctx context.Context) (map[string]string, error) {
	root := filepath.Join(r.dataDir, "scenarios")
	scenarios := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := scenario.FormatFromPath(path); !ok {
			return nil
		}

		s, err := readScenario(path)
		if err != nil {
			r.logger.Warn("Failed to load scenario file", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if prev, dup := scenarios[s.Name]; dup {
			r.logger.Warn("Duplicate scenario name", "name", s.Name, "kept", prev, "skipped", rel)
			return nil
		}
		scenarios[s.Name] = filepath.ToSlash(rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return scenarios, nil
		}
		r.logger.Error("Failed to walk scenarios directory", "error", err)
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return scenarios, nil
}

// GetScenario loads a scenario by its name.
func (r *RedisStorage) GetScenario(ctx context.Context, name string) (*scenario.Scenario, error) {
	index, err := r.ListScenarios(ctx)
	if err != nil {
		return nil, err
	}
	rel, ok := index[name]
	if !ok {
		return nil, fmt.Errorf("scenario %q: %w", name, ErrNotFound)
	}
	path := filepath.Join(r.dataDir, "scenarios", filepath.FromSlash(rel))
	r.logger.Debug("Loading scenario", "name", name, "path", path)

	s, err := readScenario(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %q: %w", name, err)
	}
	return s, nil
}

func readScenario(path string) (*scenario.Scenario, error) {
	format, ok := scenario.FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported scenario file %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return scenario.Decode(data, format)
}
