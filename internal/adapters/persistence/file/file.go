// Package file implements JSON snapshot persistence for the receiver's
// sample repository.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/ports"
)

// Persister dumps and restores the sample set as a JSON file, written
// atomically via temp-file rename.
type Persister struct {
	path string
}

var _ ports.Persister = (*Persister)(nil)

// New returns a Persister bound to the given path.
func New(path string) *Persister {
	return &Persister{path: path}
}

// Save writes the sample set to disk atomically.
func (p *Persister) Save(_ context.Context, items []domain.Sample) error {
	return writeJSONAtomic(p.path, items)
}

// Restore loads a previously saved snapshot into the repository. A missing
// snapshot file is not an error; there is simply nothing to restore.
func (p *Persister) Restore(ctx context.Context, repo ports.SampleRepo) (retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	var items []domain.Sample
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return repo.Upsert(ctx, items)
}

func writeJSONAtomic(path string, items []domain.Sample) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".samples-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
