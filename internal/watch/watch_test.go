package watch

// Notes:
// - goleak checks the fsnotify goroutines are gone once Run returns
// - Filesystem tests use a short debounce and generous receive timeouts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ---------------------------------------------------------------------------
// TestSettle - Debounce bookkeeping
// ---------------------------------------------------------------------------

func TestSettle(t *testing.T) {
	t.Parallel()

	now := time.Now()
	pending := map[string]time.Time{
		"b.md": now.Add(-time.Second),
		"a.md": now.Add(-time.Second),
		"c.md": now,
	}

	got := settle(pending, now, 100*time.Millisecond)
	if diff := cmp.Diff([]string{"a.md", "b.md"}, got); diff != "" {
		t.Errorf("settle mismatch (-want +got):\n%s", diff)
	}
	if _, ok := pending["c.md"]; !ok || len(pending) != 1 {
		t.Errorf("pending = %v, want only c.md", pending)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, func(context.Context, []string) {}); err == nil {
		t.Error("New(no files) error = nil, want error")
	}
	if _, err := New([]string{"a.md"}, nil); err == nil {
		t.Error("New(nil callback) error = nil, want error")
	}

	w, err := New([]string{"talks/a.md", "talks/b.md", "c.md"}, func(context.Context, []string) {}, WithDebounce(-1))
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if len(w.dirs) != 2 {
		t.Errorf("dirs = %v, want 2 directories", w.dirs)
	}
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}

// ---------------------------------------------------------------------------
// TestRun - Real filesystem events
// ---------------------------------------------------------------------------

func TestRun_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "intro.md")
	other := filepath.Join(dir, "other.md")
	if err := os.WriteFile(watched, []byte("# v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 4)
	w, err := New([]string{watched}, func(_ context.Context, files []string) {
		changes <- files
	}, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(watched, []byte("# v2"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case files := <-changes:
		abs, _ := filepath.Abs(watched)
		if diff := cmp.Diff([]string{abs}, files); diff != "" {
			t.Errorf("changed files mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "gone", "a.md")}, func(context.Context, []string) {})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want error for a missing directory")
	}
}
