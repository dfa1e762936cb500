package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localPath turns "dir/config.json5" into "dir/config.local.json5".
func localPath(name string) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s.local%s", strings.TrimSuffix(name, ext), ext)
}

func mergeFile[T any](out *T, path string) (bool, error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(contents) == 0 {
		return false, nil
	}

	var override T
	err = json5.Unmarshal(contents, &override)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	err = mergo.Merge(out, override, mergo.WithOverride)
	if err != nil {
		return false, fmt.Errorf("merge %s: %w", path, err)
	}
	return true, nil
}

// Load builds a configuration by layering, from least to most prioritized:
//  1. defaults
//  2. <name>.<ext>
//  3. <name>.local.<ext>
//
// Missing files are skipped, zero values in a file never override a lower layer.
func Load[T any](name string, defaults T) (T, error) {
	out := defaults

	found, err := mergeFile(&out, name)
	if err != nil {
		return defaults, err
	}
	if found {
		slog.Debug("loaded config", "path", name)
	}

	local := localPath(name)
	found, err = mergeFile(&out, local)
	if err != nil {
		return defaults, err
	}
	if found {
		slog.Info("merging config with local overrides", "local", local)
	}

	return out, nil
}

// FindUp walks from the working directory up to the filesystem root and
// returns the first path named `name` that exists.
func FindUp(name string) (string, error) {
	current, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(current, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}
