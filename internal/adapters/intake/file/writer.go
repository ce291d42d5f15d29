// Package file implements an intake-event observer that appends events to a
// local newline-delimited JSON file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/andrasq/kstats/internal/services/intake"
)

// Writer appends intake events to a local JSONL file.
type Writer struct {
	path string
	mu   sync.Mutex
}

// New creates a Writer that records every event at the provided path.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Notify marshals the intake event and atomically appends it to the file.
func (w *Writer) Notify(_ context.Context, evt intake.Event) (retErr error) {
	if w == nil || w.path == "" {
		return nil
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal intake event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open intake file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close intake file: %w", cerr)
		}
	}()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write intake file: %w", err)
	}
	return nil
}
