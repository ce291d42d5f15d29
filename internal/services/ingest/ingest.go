// Package ingest implements the receiver-side service that validates and
// stores uploaded sample batches.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/ports"
	"github.com/andrasq/kstats/internal/services/intake"
)

// Service validates uploads, stores them, and fans out intake events.
type Service struct {
	repo     ports.SampleRepo
	events   intake.Publisher
	onStored func(context.Context, []domain.Sample)
}

// New wires the repository, optional event publisher, and optional
// post-store hook (used for snapshot persistence).
func New(repo ports.SampleRepo, events intake.Publisher, onStored func(context.Context, []domain.Sample)) *Service {
	return &Service{repo: repo, events: events, onStored: onStored}
}

// Accept validates and stores one uploaded batch, returning how many samples
// were kept. Samples with empty or whitespace-bearing names are dropped
// rather than failing the whole upload.
func (s *Service) Accept(ctx context.Context, batch domain.Batch) (int, error) {
	if batch.ProtoVersion != domain.ProtoVersion {
		return 0, domain.ErrBadProtoVersion
	}

	valid := make([]domain.Sample, 0, len(batch.Data))
	for _, smp := range batch.Data {
		if strings.TrimSpace(smp.Name) == "" || strings.ContainsAny(smp.Name, " \t") {
			continue
		}
		valid = append(valid, smp)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := s.repo.Upsert(ctx, valid); err != nil {
		return 0, err
	}

	if s.events != nil {
		s.events.Publish(ctx, buildEvent(ctx, valid))
	}
	if s.onStored != nil {
		if all, err := s.repo.List(ctx); err == nil {
			s.onStored(ctx, all)
		}
	}
	return len(valid), nil
}

// Get returns every stored sample for one name, across instances.
func (s *Service) Get(ctx context.Context, name string) ([]domain.Sample, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.Get(ctx, name)
}

// List returns all stored samples.
func (s *Service) List(ctx context.Context) ([]domain.Sample, error) {
	return s.repo.List(ctx)
}

// Ping proxies to the repository health check.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func buildEvent(ctx context.Context, samples []domain.Sample) intake.Event {
	names := make([]string, 0, len(samples))
	for _, smp := range samples {
		names = append(names, smp.Name)
	}
	var instance string
	if len(samples) > 0 {
		instance = samples[0].Instance
	}
	return intake.Event{
		Timestamp: time.Now().Unix(),
		Instance:  instance,
		Count:     len(samples),
		Names:     names,
		IPAddress: intake.ClientIPFromContext(ctx),
	}
}
