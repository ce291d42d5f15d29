package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrasq/kstats/internal/adapters/repository/memory"
	"github.com/andrasq/kstats/internal/domain"
)

func TestSaveAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	p := New(path)
	ctx := context.Background()

	items := []domain.Sample{
		{Name: "a", Value: 1.5, CollectedAt: 100, Instance: "h1"},
		{Name: "b", Value: 2, CollectedAt: 200},
	}
	if err := p.Save(ctx, items); err != nil {
		t.Fatalf("Save: %v", err)
	}

	repo := memory.New()
	if err := p.Restore(ctx, repo); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := repo.List(ctx)
	if err != nil || len(got) != 2 {
		t.Fatalf("List=%v,%v", got, err)
	}
	if got[0].Name != "a" || got[0].Value != 1.5 || got[0].Instance != "h1" {
		t.Fatalf("restored=%+v", got[0])
	}
}

func TestRestore_MissingFileIsNoOp(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "missing.json"))
	if err := p.Restore(context.Background(), memory.New()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

func TestRestore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := New(path).Restore(context.Background(), memory.New()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSave_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "snapshot.json")
	if err := New(path).Save(context.Background(), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not created: %v", err)
	}
}

func TestSave_OverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	p := New(path)
	ctx := context.Background()

	if err := p.Save(ctx, []domain.Sample{{Name: "old", CollectedAt: 1}}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := p.Save(ctx, []domain.Sample{{Name: "new", CollectedAt: 2}}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	repo := memory.New()
	if err := p.Restore(ctx, repo); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := repo.List(ctx)
	if len(got) != 1 || got[0].Name != "new" {
		t.Fatalf("restored=%+v want only the second snapshot", got)
	}
}
