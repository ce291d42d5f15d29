package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpen_TouchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.log")
	if _, err := Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("journal not created: %v", err)
	}
}

func TestWriter_LogAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.log")
	w, err := Open(path, WithPrefix("unit.test."))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ts := time.Date(2015, 1, 1, 12, 34, 56, 789_000_000, time.UTC)
	if err := w.LogAt("stat-name", 111, ts); err != nil {
		t.Fatalf("LogAt: %v", err)
	}

	got := mustReadFile(t, path)
	want := "2015-01-01T12:34:56.789Z unit.test.stat-name 111\n"
	if got != want {
		t.Fatalf("journal=%q want %q", got, want)
	}
}

func TestWriter_AppendsAcrossRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := w.Log("before", 1); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if _, err := Rotate(path); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if err := w.Log("after", 2); err != nil {
		t.Fatalf("Log after rotation: %v", err)
	}

	if !strings.Contains(mustReadFile(t, path+".up"), "before") {
		t.Fatal("capture missing pre-rotation sample")
	}
	live := mustReadFile(t, path)
	if !strings.Contains(live, "after") || strings.Contains(live, "before") {
		t.Fatalf("live journal=%q, post-rotation writes must land in a fresh file", live)
	}
}

func TestWriter_WriteLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := w.WriteLine("1 raw 3\n"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := w.WriteLine("2 bare 4"); err != nil {
		t.Fatalf("WriteLine without newline: %v", err)
	}
	if err := w.WriteLine(""); err != nil {
		t.Fatalf("WriteLine empty: %v", err)
	}
	got := mustReadFile(t, path)
	if got != "1 raw 3\n2 bare 4\n" {
		t.Fatalf("journal=%q", got)
	}
}

func TestWriter_ConcurrentLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 25; j++ {
				if err := w.Log("n", float64(j)); err != nil {
					t.Errorf("Log: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	lines := strings.Split(strings.TrimSuffix(mustReadFile(t, path), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("lines=%d want 100", len(lines))
	}
	for _, line := range lines {
		if len(strings.Split(line, " ")) != 3 {
			t.Fatalf("torn line %q", line)
		}
	}
}
