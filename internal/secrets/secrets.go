// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file is one secret: the filename is the key name and the trimmed contents
// are the value.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/art-enricher/internal/logging"
	"github.com/pdiddy/art-enricher/pkg/types"
)

// Key files understood by Apply.
const (
	KeyWebSearch  = "google-search-api-key"
	KeyAdaptation = "adaptation-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Dotfiles, subdirectories
// and empty files are skipped; unreadable files are logged and skipped.
func Load(fsys afero.Fs, dir string, logger *slog.Logger) (map[string]string, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			logging.OrDefault(logger).Warn("could not read secret", "name", name, "error", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills API keys that configuration left empty from secrets.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.WebSearch.APIKey == "" {
		cfg.WebSearch.APIKey = secrets[KeyWebSearch]
	}
	if cfg.Adaptation.APIKey == "" {
		cfg.Adaptation.APIKey = secrets[KeyAdaptation]
	}
}
