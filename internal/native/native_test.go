package native

// Notes:
// - MakeSource is pure and runs everywhere.
// - Handle tests use a shell script standing in for the compiler: it emits a
//   shell script as the "executable", so only /bin/sh is required. Markers in
//   the code drive the outcome (COMPILE_ERROR, RUN_ERROR).
// - Tests against real g++/clang++ live in native_integration_test.go.

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/buildcache"
)

const fakeCompiler = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/calls"
out=""; src=""; obj=0
for a in "$@"; do
  case "$a" in
    -o*) out="${a#-o}" ;;
    -c) obj=1 ;;
    -*) ;;
    *) src="$a" ;;
  esac
done
if grep -q COMPILE_ERROR "$src"; then echo "error: bad code" >&2; exit 1; fi
if [ "$obj" = 1 ]; then echo obj > "$out"; exit 0; fi
status=0
if grep -q RUN_ERROR "$src"; then status=3; fi
printf '#!/bin/sh\necho ran\necho oops >&2\nexit %s\n' "$status" > "$out"
chmod +x "$out"
`

func newFakeHandler(t *testing.T, opts ...Option) (*Handler, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler requires /bin/sh")
	}

	toolDir := t.TempDir()
	compiler := filepath.Join(toolDir, "fakecc")
	if err := os.WriteFile(compiler, []byte(fakeCompiler), 0o700); err != nil { // #nosec G306 -- test script
		t.Fatal(err)
	}

	store, err := buildcache.New(t.TempDir())
	if err != nil {
		t.Fatalf("buildcache.New() unexpected error: %v", err)
	}

	h, err := New(store, compiler, opts...)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return h, toolDir
}

func compilerCalls(t *testing.T, toolDir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(toolDir, "calls"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("reading compiler calls: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ---------------------------------------------------------------------------
// TestMakeSource - Entry point wrapping
// ---------------------------------------------------------------------------

func TestMakeSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		code     string
		noMain   bool
		want     string
		wantMain bool
	}{
		{name: "wrapped", code: "int a = 1;", want: "int main() {\nint a = 1;\n}", wantMain: true},
		{name: "has main", code: "int main() { return 0; }", want: "int main() { return 0; }", wantMain: true},
		{name: "no-main", code: "int f();", noMain: true, want: "int f();", wantMain: false},
		{name: "no-main wins over main", code: "int main();", noMain: true, want: "int main();", wantMain: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, hasMain := MakeSource(tt.code, tt.noMain)
			if got != tt.want {
				t.Errorf("MakeSource() source = %q, want %q", got, tt.want)
			}
			if hasMain != tt.wantMain {
				t.Errorf("MakeSource() hasMain = %v, want %v", hasMain, tt.wantMain)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Handle - Compile, run, cache
// ---------------------------------------------------------------------------

func TestHandler_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		code        string
		meta        md2slides.Metadata
		wantCompile int
		wantRun     *md2slides.RunOutcome
	}{
		{
			name:    "compiles and runs",
			code:    "int a = 1;",
			wantRun: &md2slides.RunOutcome{Output: "ran\noops\n", Status: 0},
		},
		{
			name:    "run failure",
			code:    "RUN_ERROR;",
			wantRun: &md2slides.RunOutcome{Output: "ran\noops\n", Status: 3},
		},
		{
			name:        "compile failure",
			code:        "COMPILE_ERROR",
			wantCompile: 1,
		},
		{
			name: "no-main builds object only",
			code: "int f();",
			meta: md2slides.Metadata{md2slides.MetaNoMain: "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newFakeHandler(t)
			result, err := h.Handle(context.Background(), tt.code, nil, tt.meta)
			if err != nil {
				t.Fatalf("Handle() unexpected error: %v", err)
			}
			if err := result.Validate(); err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if result.Compile == nil {
				t.Fatal("Compile outcome missing")
			}
			if result.Compile.Status != tt.wantCompile {
				t.Errorf("Compile.Status = %d, want %d", result.Compile.Status, tt.wantCompile)
			}
			if diff := cmp.Diff(tt.wantRun, result.Run); diff != "" {
				t.Errorf("Run mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandler_Handle_CompileDiagnostics(t *testing.T) {
	t.Parallel()

	h, _ := newFakeHandler(t)
	result, err := h.Handle(context.Background(), "COMPILE_ERROR", nil, nil)
	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	if !strings.Contains(result.Compile.Output, "error: bad code") {
		t.Errorf("Compile.Output = %q, want the compiler diagnostics", result.Compile.Output)
	}
	if result.Run != nil {
		t.Errorf("Run = %+v, want nil", result.Run)
	}
}

func TestHandler_Handle_Cached(t *testing.T) {
	t.Parallel()

	h, toolDir := newFakeHandler(t)
	ctx := context.Background()
	meta := md2slides.Metadata{md2slides.MetaFilename: "deck"}

	first, err := h.Handle(ctx, "int a = 1;", nil, meta)
	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	second, err := h.Handle(ctx, "int a = 1;", nil, meta)
	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}

	if first.Compile.Output == buildcache.CachedLog {
		t.Error("first build must not report the cached log")
	}
	if second.Compile.Output != buildcache.CachedLog {
		t.Errorf("second Compile.Output = %q, want %q", second.Compile.Output, buildcache.CachedLog)
	}
	if diff := cmp.Diff(first.Run, second.Run); diff != "" {
		t.Errorf("cached run differs (-first +second):\n%s", diff)
	}
	if calls := compilerCalls(t, toolDir); len(calls) != 1 {
		t.Errorf("compiler ran %d times, want 1", len(calls))
	}

	src := filepath.Join(h.store.Dir(), buildcache.NewKey("int a = 1;", meta)+".cpp")
	if !fileExists(src) {
		t.Errorf("source %s was not kept", src)
	}
}

func TestHandler_Handle_FlagsAndObjectArgs(t *testing.T) {
	t.Parallel()

	h, toolDir := newFakeHandler(t, WithFlags("-std=c++20", "-Wall"))
	if _, err := h.Handle(context.Background(), "int f();", nil, md2slides.Metadata{md2slides.MetaNoMain: "1"}); err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}

	calls := compilerCalls(t, toolDir)
	if len(calls) != 1 {
		t.Fatalf("compiler calls = %q, want 1", calls)
	}
	if !strings.HasPrefix(calls[0], "-std=c++20 -Wall -o") {
		t.Errorf("flags must come first: %q", calls[0])
	}
	if !strings.HasSuffix(calls[0], ".cpp -c") {
		t.Errorf("object build must end with -c: %q", calls[0])
	}
}

func TestHandler_Handle_LanguageNamespacesCache(t *testing.T) {
	t.Parallel()

	h, _ := newFakeHandler(t, WithLanguage(md2slides.LanguageC, ".c"))
	if h.Language() != md2slides.LanguageC {
		t.Errorf("Language() = %q, want %q", h.Language(), md2slides.LanguageC)
	}

	if _, err := h.Handle(context.Background(), "int a;", nil, nil); err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}

	cppKey := buildcache.NewKey("int a;", nil)
	if fileExists(filepath.Join(h.store.Dir(), cppKey+".c")) {
		t.Error("C sources must not share the C++ key")
	}
	cKey := buildcache.NewKey("int a;", md2slides.Metadata{metaLanguage: "c"})
	if !fileExists(filepath.Join(h.store.Dir(), cKey+".c")) {
		t.Errorf("C source %s.c missing", cKey)
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	store, err := buildcache.New(t.TempDir())
	if err != nil {
		t.Fatalf("buildcache.New() unexpected error: %v", err)
	}

	if _, err := New(nil, "g++"); err == nil {
		t.Error("New(nil store) error = nil, want error")
	}
	if _, err := New(store, ""); err == nil {
		t.Error("New(empty compiler) error = nil, want error")
	}
}
