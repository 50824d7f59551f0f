package main

import (
	"context"
	"errors"
	"os"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/assets"
	"github.com/alnah/go-md2slides/internal/config"
	"github.com/alnah/go-md2slides/internal/deck"
	"github.com/alnah/go-md2slides/internal/export"
	"github.com/alnah/go-md2slides/internal/toolchain"
)

// Exit codes for the md2slides CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // All decks built
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or assets
	ExitIO        = 3 // File not found, permission denied
	ExitBrowser   = 4 // Browser/Chrome errors during PDF export
	ExitToolchain = 5 // Required compiler or interpreter missing
	ExitCode      = 6 // A code block failed its wants expression
	ExitTimeout   = 7 // Build deadline exceeded
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, export.ErrBrowserConnect) ||
		errors.Is(err, export.ErrPageCreate) ||
		errors.Is(err, export.ErrPageLoad) ||
		errors.Is(err, export.ErrPDFGeneration) {
		return ExitBrowser
	}

	// Toolchain errors (exit 5)
	if errors.Is(err, toolchain.ErrNoCompiler) ||
		errors.Is(err, toolchain.ErrNoPython) ||
		errors.Is(err, toolchain.ErrNoGit) {
		return ExitToolchain
	}

	// Code block errors (exit 6)
	if errors.Is(err, md2slides.ErrAssertion) ||
		errors.Is(err, md2slides.ErrAmbiguousWants) ||
		errors.Is(err, md2slides.ErrFragmentNotFound) ||
		errors.Is(err, md2slides.ErrUnknownLanguage) ||
		errors.Is(err, md2slides.ErrInvalidLanguage) ||
		errors.Is(err, md2slides.ErrEmptyResult) {
		return ExitCode
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeout
	}

	// Usage/config/asset errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrPathTraversal) ||
		errors.Is(err, assets.ErrMissingPlaceholder) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, deck.ErrReadInput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	return ExitGeneral
}
