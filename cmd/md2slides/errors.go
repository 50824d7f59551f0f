package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/config"
	"github.com/alnah/go-md2slides/internal/export"
	"github.com/alnah/go-md2slides/internal/hints"
	"github.com/alnah/go-md2slides/internal/toolchain"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage       = errors.New("invalid usage")
	ErrNoInput     = errors.New("no markdown input")
	ErrBuildFailed = errors.New("deck build failed")
)

// buildFailure summarizes a build where some decks failed. It unwraps to
// ErrBuildFailed and the first failure so exit codes follow the cause.
type buildFailure struct {
	failed int
	total  int
	first  error
}

func (e *buildFailure) Error() string {
	return fmt.Sprintf("%d of %d decks failed", e.failed, e.total)
}

func (e *buildFailure) Unwrap() []error {
	return []error{ErrBuildFailed, e.first}
}

// hintContext carries what hints need beyond the error itself.
type hintContext struct {
	languages  []string
	configName string
}

// hintedError attaches hint context to an error returned by a command.
type hintedError struct {
	err error
	hc  hintContext
}

func (e *hintedError) Error() string { return e.err.Error() }

func (e *hintedError) Unwrap() error { return e.err }

func withHints(err error, hc hintContext) error {
	if err == nil {
		return nil
	}
	return &hintedError{err: err, hc: hc}
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, hc hintContext) string {
	switch {
	case errors.Is(err, toolchain.ErrNoCompiler):
		return hints.ForCompilerNotFound("CXX", toolchain.CXX.Candidates)
	case errors.Is(err, toolchain.ErrNoPython):
		return hints.ForPythonNotFound()
	case errors.Is(err, toolchain.ErrNoGit):
		return hints.ForGitNotFound()
	case errors.Is(err, md2slides.ErrUnknownLanguage):
		return hints.ForUnknownLanguage(hc.languages)
	case errors.Is(err, md2slides.ErrAssertion):
		return hints.ForAssertion()
	case errors.Is(err, export.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound) && hc.configName != "":
		return hints.ForConfigNotFound(config.SearchPaths(hc.configName))
	case errors.Is(err, os.ErrPermission):
		return hints.ForOutputDirectory()
	}
	return ""
}

// printError writes err and its hint, if any. Failed decks were already
// reported with their own hints, so a build failure gets none.
func printError(w io.Writer, err error, hc hintContext) {
	var he *hintedError
	if errors.As(err, &he) {
		hc = he.hc
	}
	hint := ""
	if !errors.Is(err, ErrBuildFailed) {
		hint = hintFor(err, hc)
	}
	fmt.Fprintf(w, "error: %v%s\n", err, hint)
}
