package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/deck"
	"github.com/alnah/go-md2slides/internal/toolchain"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment with no real toolchain
// ---------------------------------------------------------------------------

// noToolsFinder finds nothing, so no real compiler or git is ever started.
func noToolsFinder() *toolchain.Finder {
	return &toolchain.Finder{
		Getenv:   func(string) string { return "" },
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		Probe:    func(context.Context, string) (string, error) { return "", errors.New("not installed") },
	}
}

// fakeRegistry registers a C++ handler that fails to compile any block
// containing "error" and runs everything else.
func fakeRegistry(_ context.Context, _ registryDeps) (*md2slides.Registry, error) {
	reg := md2slides.NewRegistry()
	err := reg.Register("cpp", md2slides.HandlerFunc(
		func(_ context.Context, code string, _ md2slides.Flags, _ md2slides.Metadata) (*md2slides.ExecutionResult, error) {
			if strings.Contains(code, "error") {
				return &md2slides.ExecutionResult{Compile: &md2slides.CompileOutcome{Output: "error: bad", Status: 1}}, nil
			}
			return &md2slides.ExecutionResult{
				Compile: &md2slides.CompileOutcome{},
				Run:     &md2slides.RunOutcome{Output: "ok\n"},
			}, nil
		}))
	return reg, err
}

// testEnv returns an Environment reading vars instead of the process
// environment, and its captured output.
func testEnv(vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			list := make([]string, 0, len(vars))
			for k, v := range vars {
				list = append(list, k+"="+v)
			}
			sort.Strings(list)
			return list
		},
		Finder:      noToolsFinder(),
		NewRegistry: fakeRegistry,
	}
	return env, &stdout, &stderr
}

// cdnVars points reveal.js at the CDN, so builds need no git.
func cdnVars() map[string]string {
	return map[string]string{"MD2SLIDES_REVEAL_JS_PATH": deck.RevealCDN()}
}

// writeFiles creates files under dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("creating dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

const fence = "```"

func cppSlide(title, code, wants string) string {
	return "# " + title + "\n\n" + fence + "cpp\n" + code + "\n" + fence + "\n<!-- .element: wants=\"" + wants + "\" -->\n"
}
