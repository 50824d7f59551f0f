package main

// Notes:
// - End-to-end builds through runMain with fakeRegistry; t.Chdir makes the
//   relative input names match the deck names, so no t.Parallel()
// - noToolsFinder has no git, so builds pass the CDN as the reveal.js
//   location through cdnVars
// - PDF export and watch mode need a browser or real file events and are
//   covered in their own packages

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/alnah/go-md2slides/internal/deck"
)

// ---------------------------------------------------------------------------
// TestBuild - Full deck builds
// ---------------------------------------------------------------------------

func TestBuild_WritesDecksAndIndex(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{
		"intro.md":         cppSlide("Intro", "int a = 1;", "compiles"),
		"extra.no-index.md": cppSlide("Extra", "int b = 2;", "running"),
	})

	env, stdout, stderr := testEnv(cdnVars())
	code := runMain([]string{"md2slides", "--build-dir", "cache", "-o", "out/", "intro.md", "extra.no-index.md"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
	}

	intro := readFile(t, filepath.Join("out", "intro.html"))
	for _, want := range []string{
		`does="rayjs-compiling"`,
		deck.RevealCDN(),
		"<title>Intro</title>",
	} {
		if !strings.Contains(intro, want) {
			t.Errorf("intro deck missing %q", want)
		}
	}
	if strings.Contains(intro, "wants=") {
		t.Error("intro deck still contains a wants directive")
	}

	extra := readFile(t, filepath.Join("out", "extra.html"))
	if !strings.Contains(extra, `does="rayjs-running"`) {
		t.Errorf("extra deck missing running token:\n%s", extra)
	}

	index := readFile(t, filepath.Join("out", "index.html"))
	if !strings.Contains(index, `href="intro.html"`) {
		t.Errorf("index missing intro link:\n%s", index)
	}
	if !strings.Contains(index, "<!-- extra.html -->") {
		t.Errorf("index should hide extra deck in a comment:\n%s", index)
	}

	out := stdout.String()
	for _, want := range []string{"BUILT intro.md -> out/intro.html", "(1 block)", "2 built, 0 failed"} {
		if !strings.Contains(out, filepath.FromSlash(want)) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestBuild_FailingDeckDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{
		"bad.md":  cppSlide("Bad", "int error;", "running"),
		"good.md": cppSlide("Good", "int ok;", "compiles"),
	})

	env, stdout, stderr := testEnv(cdnVars())
	code := runMain([]string{"md2slides", "--build-dir", "cache", "bad.md", "good.md"}, env)
	if code != ExitCode {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, ExitCode, stderr.String())
	}

	if _, err := os.Stat("bad.html"); !os.IsNotExist(err) {
		t.Error("failed deck should leave no output")
	}
	if _, err := os.Stat("good.html"); err != nil {
		t.Errorf("good deck should be written: %v", err)
	}

	errOut := stderr.String()
	for _, want := range []string{"FAILED bad.md", "bad.md:3: cpp block", "hint: fix the code", "error: 1 of 2 decks failed"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
	if strings.Count(errOut, "hint:") != 1 {
		t.Errorf("hint should be printed once:\n%s", errOut)
	}
	if !strings.Contains(stdout.String(), "1 built, 1 failed") {
		t.Errorf("stdout missing summary:\n%s", stdout.String())
	}
}

func TestBuild_IgnoreMarkerAndPattern(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{
		"marked.md": deck.IgnoreMarker + "\n" + cppSlide("Marked", "int a;", "compiles"),
		"draft.md":  cppSlide("Draft", "int a;", "compiles"),
		"talk.md":   cppSlide("Talk", "int a;", "compiles"),
	})

	env, stdout, stderr := testEnv(cdnVars())
	code := runMain([]string{"md2slides", "--build-dir", "cache", "-i", "draft*", "-n", "marked.md", "draft.md", "talk.md"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}

	var written []string
	for _, name := range []string{"marked.html", "draft.html", "talk.html", "index.html"} {
		if _, err := os.Stat(name); err == nil {
			written = append(written, name)
		}
	}
	if diff := cmp.Diff([]string{"talk.html"}, written); diff != "" {
		t.Errorf("written files mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(stdout.String(), "SKIPPED marked.md") {
		t.Errorf("stdout missing skip line:\n%s", stdout.String())
	}
}

func TestBuild_OnlyIgnoredInputs(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{"draft.md": "# Draft"})

	env, _, _ := testEnv(nil)
	if code := runMain([]string{"md2slides", "-i", "*.md", "draft.md"}, env); code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
}

func TestBuild_MissingGitAborts(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{"talk.md": cppSlide("Talk", "int a;", "compiles")})

	env, stdout, stderr := testEnv(nil)
	code := runMain([]string{"md2slides", "--build-dir", "cache", "talk.md"}, env)
	if code != ExitToolchain {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, ExitToolchain, stderr.String())
	}
	if _, err := os.Stat("talk.html"); !os.IsNotExist(err) {
		t.Error("no deck should be written when git is missing")
	}
	if strings.Contains(stdout.String(), "BUILT") {
		t.Errorf("no deck should be processed:\n%s", stdout.String())
	}
	for _, want := range []string{"could not find git", "hint: install git"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestBuild_BeginEndSlidesAndPreview(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{
		"begin.md": "# Welcome",
		"end.md":   "# Questions?",
		"talk.md":  cppSlide("Talk", "int a;", "compiles"),
	})

	env, _, stderr := testEnv(map[string]string{"MD2SLIDES_REVEAL_JS_PATH": "vendor/reveal"})
	code := runMain([]string{"md2slides", "--build-dir", "cache", "-b", "begin.md", "-e", "end.md", "--preview", "-n", "talk.md"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}

	talk := readFile(t, "talk.html")
	welcome := strings.Index(talk, "# Welcome")
	body := strings.Index(talk, "# Talk")
	questions := strings.Index(talk, "# Questions?")
	if welcome < 0 || body < welcome || questions < body {
		t.Errorf("begin/body/end slides out of order:\n%s", talk)
	}
	if !strings.Contains(talk, "vendor/reveal/") {
		t.Errorf("deck should use reveal.js from the environment override:\n%s", talk)
	}

	preview := readFile(t, "talk.preview.html")
	if !strings.Contains(preview, "rayjs-compiling") {
		t.Errorf("preview missing outcome class:\n%s", preview)
	}
}

func TestBuild_TokenPrefix(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFiles(t, dir, map[string]string{"talk.md": cppSlide("Talk", "int a;", "compiles")})

	env, _, stderr := testEnv(cdnVars())
	code := runMain([]string{"md2slides", "--build-dir", "cache", "--token-prefix", "demo", "-n", "talk.md"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}
	if talk := readFile(t, "talk.html"); !strings.Contains(talk, `does="demo-compiling"`) {
		t.Errorf("deck should use the custom token prefix:\n%s", talk)
	}
}

// ---------------------------------------------------------------------------
// TestFilterInputs - Ignore glob
// ---------------------------------------------------------------------------

func TestFilterInputs(t *testing.T) {
	t.Parallel()

	got := filterInputs([]string{"a.md", "talks/draft-1.md", "b.md"}, "draft-*", zap.NewNop())
	if diff := cmp.Diff([]string{"a.md", "b.md"}, got); diff != "" {
		t.Errorf("filterInputs mismatch (-want +got):\n%s", diff)
	}

	all := filterInputs([]string{"a.md"}, "", zap.NewNop())
	if len(all) != 1 {
		t.Errorf("empty pattern should keep everything, got %v", all)
	}
}

// ---------------------------------------------------------------------------
// TestClean - Cache removal
// ---------------------------------------------------------------------------

func TestClean_RemovesCachedFiles(t *testing.T) {
	t.Parallel()

	cache := filepath.Join(t.TempDir(), "cache")
	writeFiles(t, cache, map[string]string{
		"talk-1234.cpp":         "int main() {}",
		"talk-1234":             "binary",
		"reveal_js/js/reveal.js": "keep",
	})

	env, stdout, stderr := testEnv(nil)
	if code := runMain([]string{"md2slides", "clean", "--build-dir", cache}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Removed 2 cached file(s)") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(cache, "reveal_js", "js", "reveal.js")); err != nil {
		t.Errorf("reveal.js checkout should be kept: %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestConfigCmd - Effective configuration
// ---------------------------------------------------------------------------

func TestConfigCmd_PrintsMergedConfig(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "talks.yaml")
	writeFiles(t, filepath.Dir(cfgPath), map[string]string{
		"talks.yaml": "build:\n  dir: from-file\n  tokenPrefix: file\ndeck:\n  outputPrefix: site/\n",
	})

	env, stdout, stderr := testEnv(map[string]string{"MD2SLIDES_TOKEN_PREFIX": "env"})
	code := runMain([]string{"md2slides", "config", "-c", cfgPath, "--build-dir", "from-flag"}, env)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{"dir: from-flag", "tokenPrefix: env", "outputPrefix: site/"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}
