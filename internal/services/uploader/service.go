// Package uploader owns the rotate → read → upload → cleanup cycle for one
// journal, plus the periodic loop that drives it.
package uploader

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/ports"
)

// Service runs upload cycles for a single journal path. The in-flight guard
// is per Service: two Services on different journals never block each other.
type Service struct {
	path     string
	up       ports.Uploader
	inFlight atomic.Bool
}

// New binds a journal path to the backend that consumes its captures.
func New(journalPath string, up ports.Uploader) *Service {
	return &Service{path: journalPath, up: up}
}

// RunCycle executes one full upload cycle. When a cycle is already in flight
// it returns nil immediately with zero side effects, so a scheduler firing
// faster than an upload completes cannot overlap rotations.
//
// The capture file is deleted only after the backend confirms the upload;
// any earlier failure leaves it in place to be retried with identical
// contents on the next cycle.
func (s *Service) RunCycle(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer s.inFlight.Store(false)

	capture, err := journal.Rotate(s.path)
	if err != nil {
		return fmt.Errorf("rotate journal: %w", err)
	}

	contents, err := os.ReadFile(capture)
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}

	if len(contents) == 0 {
		if err := os.Remove(capture); err != nil {
			return fmt.Errorf("remove empty capture: %w", err)
		}
		return nil
	}

	if err := s.up.Upload(ctx, contents); err != nil {
		return fmt.Errorf("upload capture: %w", err)
	}

	// The upload is logically complete; a failed delete means a possible
	// duplicate next cycle, which at-least-once delivery permits.
	if err := os.Remove(capture); err != nil {
		return fmt.Errorf("remove capture after upload: %w", err)
	}
	return nil
}
