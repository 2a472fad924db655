// Package localfs implements the media library port over a local directory.
package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Shima-Rai/melixa/internal/core/domain"
	"github.com/Shima-Rai/melixa/internal/core/ports"
)

// Library lists audio assets from the filesystem.
type Library struct{}

var _ ports.MediaLibrary = Library{}

// New returns a filesystem-backed media library.
func New() Library {
	return Library{}
}

// List returns the plain file names under path, skipping subdirectories.
// A missing directory maps to domain.ErrNotFound.
func (Library) List(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("library directory %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to list library directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
