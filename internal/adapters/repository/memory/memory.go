// Package memory implements an in-memory latest-sample repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/ports"
)

type key struct {
	name     string
	instance string
}

// Repo keeps the latest sample per (name, instance) with coarse RW locking.
type Repo struct {
	samples map[key]domain.Sample
	mu      sync.RWMutex
}

var _ ports.SampleRepo = (*Repo)(nil)

// New returns an empty in-memory repository.
func New() *Repo {
	return &Repo{samples: make(map[key]domain.Sample)}
}

// Upsert stores each sample, keeping the newest per (name, instance).
// At-least-once delivery means replays arrive; an older CollectedAt never
// overwrites a newer one.
func (r *Repo) Upsert(_ context.Context, items []domain.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, smp := range items {
		k := key{name: smp.Name, instance: smp.Instance}
		if prev, ok := r.samples[k]; ok && prev.CollectedAt > smp.CollectedAt {
			continue
		}
		r.samples[k] = smp
	}
	return nil
}

// Get returns the stored samples for one name across all instances.
func (r *Repo) Get(_ context.Context, name string) ([]domain.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Sample
	for k, smp := range r.samples {
		if k.name == name {
			out = append(out, smp)
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNotFound
	}
	sortSamples(out)
	return out, nil
}

// List returns every stored sample ordered by name then instance.
func (r *Repo) List(_ context.Context) ([]domain.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Sample, 0, len(r.samples))
	for _, smp := range r.samples {
		out = append(out, smp)
	}
	sortSamples(out)
	return out, nil
}

// Ping reports the in-memory store as always healthy.
func (*Repo) Ping(context.Context) error {
	return nil
}

func sortSamples(items []domain.Sample) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Instance < items[j].Instance
	})
}
