package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbstnppl/worldkeeper/pkg/world"
)

// World definition operations (filesystem-backed). Definitions are
// templates: session creation copies them into session rows, after which
// the files are never consulted for that session again.

func (s *PostgresStore) GetWorldDefinition(name string) (*world.Definition, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid world name %q", name)
	}

	path := filepath.Join(s.dataDir, "worlds", name+".json")
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("world %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("read world file: %w", err)
	}

	var def world.Definition
	if err := json.Unmarshal(file, &def); err != nil {
		return nil, fmt.Errorf("unmarshal world %s: %w", name, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("world %s: %w", name, err)
	}
	return &def, nil
}

func (s *PostgresStore) ListWorldDefinitions() ([]string, error) {
	worldsDir := filepath.Join(s.dataDir, "worlds")
	names := make([]string, 0)

	err := filepath.WalkDir(worldsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		name := strings.TrimSuffix(filepath.Base(path), ".json")

		file, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read world file", "path", path, "error", err)
			return nil
		}
		var def world.Definition
		if err := json.Unmarshal(file, &def); err != nil {
			s.logger.Warn("Failed to unmarshal world file", "path", path, "error", err)
			return nil
		}

		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}

	return names, nil
}
