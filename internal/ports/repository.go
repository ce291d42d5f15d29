package ports

import (
	"context"

	"github.com/andrasq/kstats/internal/domain"
)

// SampleRepo stores the latest sample per (name, instance) pair.
type SampleRepo interface {
	Upsert(ctx context.Context, items []domain.Sample) error
	Get(ctx context.Context, name string) ([]domain.Sample, error)
	List(ctx context.Context) ([]domain.Sample, error)
	Ping(ctx context.Context) error
}

// Persister dumps and restores a repository snapshot across restarts.
type Persister interface {
	Save(ctx context.Context, items []domain.Sample) error
	Restore(ctx context.Context, repo SampleRepo) error
}
