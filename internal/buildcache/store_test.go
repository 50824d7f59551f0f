package buildcache_test

// Notes:
// - BuildFuncs are Go closures writing plain files; no compiler is needed.
// - goleak guards the singleflight paths against stray goroutines.
// - The concurrency test cannot force every caller into the same flight, but
//   any caller that misses the flight finds the published artifact, so the
//   build count is exactly one either way.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/buildcache"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeArtifact(content string) buildcache.BuildFunc {
	return func(_ context.Context, out string) (buildcache.BuildOutput, error) {
		if err := os.WriteFile(out, []byte(content), 0o600); err != nil {
			return buildcache.BuildOutput{}, err
		}
		return buildcache.BuildOutput{Log: "built"}, nil
	}
}

func newStore(t *testing.T, dir string) *buildcache.Store {
	t.Helper()

	store, err := buildcache.New(dir)
	if err != nil {
		t.Fatalf("New(%q) unexpected error: %v", dir, err)
	}
	return store
}

// ---------------------------------------------------------------------------
// TestNewKey - Content-derived names
// ---------------------------------------------------------------------------

func TestNewKey(t *testing.T) {
	t.Parallel()

	if got := buildcache.NewKey("int a;", nil); got != "B88CCA" {
		t.Errorf("NewKey() = %q, want %q", got, "B88CCA")
	}
	if got := buildcache.NewKey("int a;", md2slides.Metadata{md2slides.MetaFilename: "deck"}); got != "deckP80G4A" {
		t.Errorf("NewKey(filename) = %q, want %q", got, "deckP80G4A")
	}

	base := buildcache.NewKey("int a;", md2slides.Metadata{"x": "1"})
	if got := buildcache.NewKey("int a;", md2slides.Metadata{"x": "1"}); got != base {
		t.Errorf("key must be deterministic: %q != %q", got, base)
	}
	if buildcache.NewKey("int b;", md2slides.Metadata{"x": "1"}) == base {
		t.Error("code must affect key")
	}
	if buildcache.NewKey("int a;", md2slides.Metadata{"x": "1", md2slides.MetaNoMain: "true"}) == base {
		t.Error("meta must affect key")
	}
	if strings.ContainsAny(base, "/+=") {
		t.Errorf("key %q must be file-name safe", base)
	}
}

// ---------------------------------------------------------------------------
// TestStore_Ensure - Build, publish, reuse
// ---------------------------------------------------------------------------

func TestStore_Ensure(t *testing.T) {
	t.Parallel()

	store := newStore(t, t.TempDir())
	ctx := context.Background()

	first, err := store.Ensure(ctx, "abc", writeArtifact("exe"))
	if err != nil {
		t.Fatalf("Ensure() unexpected error: %v", err)
	}
	want := buildcache.Entry{Path: store.Path("abc"), Output: buildcache.BuildOutput{Log: "built"}}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first Ensure mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if string(data) != "exe" {
		t.Errorf("artifact = %q, want %q", data, "exe")
	}

	second, err := store.Ensure(ctx, "abc", func(context.Context, string) (buildcache.BuildOutput, error) {
		t.Error("build must not run for a cached artifact")
		return buildcache.BuildOutput{}, nil
	})
	if err != nil {
		t.Fatalf("Ensure() unexpected error: %v", err)
	}
	want = buildcache.Entry{Path: store.Path("abc"), Cached: true, Output: buildcache.BuildOutput{Log: buildcache.CachedLog}}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("cached Ensure mismatch (-want +got):\n%s", diff)
	}
	if !second.Output.Succeeded() {
		t.Error("cached output must count as a success")
	}
}

func TestStore_Ensure_FailedBuildLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newStore(t, dir)

	entry, err := store.Ensure(context.Background(), "bad", func(_ context.Context, out string) (buildcache.BuildOutput, error) {
		_ = os.WriteFile(out, []byte("partial"), 0o600)
		return buildcache.BuildOutput{Log: "error: expected ';'", Status: 1}, nil
	})
	if err != nil {
		t.Fatalf("Ensure() unexpected error: %v", err)
	}
	if entry.Path != "" || entry.Output.Status != 1 {
		t.Errorf("entry = %+v, want no path and status 1", entry)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed build left %d files", len(entries))
	}
}

func TestStore_Ensure_Errors(t *testing.T) {
	t.Parallel()

	store := newStore(t, t.TempDir())
	ctx := context.Background()

	errBoom := errors.New("boom")
	_, err := store.Ensure(ctx, "err", func(context.Context, string) (buildcache.BuildOutput, error) {
		return buildcache.BuildOutput{}, errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Ensure() error = %v, want %v", err, errBoom)
	}

	_, err = store.Ensure(ctx, "empty", func(context.Context, string) (buildcache.BuildOutput, error) {
		return buildcache.BuildOutput{}, nil
	})
	if !errors.Is(err, buildcache.ErrArtifactMissing) {
		t.Errorf("Ensure() error = %v, want ErrArtifactMissing", err)
	}
}

func TestStore_Ensure_ConcurrentSameKey(t *testing.T) {
	t.Parallel()

	store := newStore(t, t.TempDir())

	var builds atomic.Int32
	build := func(ctx context.Context, out string) (buildcache.BuildOutput, error) {
		builds.Add(1)
		return writeArtifact("exe")(ctx, out)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := store.Ensure(context.Background(), "shared", build)
			if err != nil || entry.Path == "" {
				t.Errorf("Ensure: entry=%+v err=%v", entry, err)
			}
		}()
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// TestStore_WriteSource / TestStore_Clean
// ---------------------------------------------------------------------------

func TestStore_WriteSource(t *testing.T) {
	t.Parallel()

	store := newStore(t, t.TempDir())

	path, err := store.WriteSource("k.cpp", []byte("int main() {}"))
	if err != nil {
		t.Fatalf("WriteSource() unexpected error: %v", err)
	}
	if _, err := store.WriteSource("k.cpp", []byte("changed")); err != nil {
		t.Fatalf("WriteSource() unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() unexpected error: %v", err)
	}
	if string(data) != "int main() {}" {
		t.Errorf("source = %q, want the first write kept", data)
	}
}

func TestStore_Clean(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := newStore(t, dir)

	if _, err := store.WriteSource("a.cpp", []byte("x")); err != nil {
		t.Fatalf("WriteSource() unexpected error: %v", err)
	}
	if _, err := store.Ensure(context.Background(), "a", writeArtifact("exe")); err != nil {
		t.Fatalf("Ensure() unexpected error: %v", err)
	}
	revealDir := filepath.Join(dir, "reveal_js", "dist")
	if err := os.MkdirAll(revealDir, 0o750); err != nil {
		t.Fatalf("MkdirAll() unexpected error: %v", err)
	}

	removed, err := store.Clean()
	if err != nil {
		t.Fatalf("Clean() unexpected error: %v", err)
	}
	if removed != 2 {
		t.Errorf("Clean() removed %d, want 2", removed)
	}
	if info, err := os.Stat(revealDir); err != nil || !info.IsDir() {
		t.Errorf("reveal.js checkout must survive Clean: %v", err)
	}
}

func TestNew_EmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := buildcache.New(""); err == nil {
		t.Error("New(\"\") error = nil, want error")
	}
}
