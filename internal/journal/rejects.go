package journal

import (
	"sync"

	"github.com/andrasq/kstats/internal/ports"
)

// Rejects is an ordered, concurrency-safe collection of raw rejected lines.
// The core only ever appends to it; draining is the owner's business.
type Rejects struct {
	mu    sync.Mutex
	lines []string
}

var _ ports.RejectSink = (*Rejects)(nil)

// Append records one rejected line, preserving arrival order.
func (r *Rejects) Append(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

// Lines returns a copy of the accumulated rejected lines.
func (r *Rejects) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Len reports how many lines have been rejected since the last Swap.
func (r *Rejects) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Swap installs next as the backing sequence and returns the previous one
// intact, so un-drained rejects are never lost implicitly.
func (r *Rejects) Swap(next []string) []string {
	r.mu.Lock()
	prev := r.lines
	r.lines = next
	r.mu.Unlock()
	return prev
}
