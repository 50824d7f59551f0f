package deck

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-md2slides/internal/fileutil"
	"github.com/alnah/go-md2slides/internal/process"
)

// reveal.js release fetched when no path is configured.
const (
	RevealVersion = "5.2.1"
	RevealRepo    = "https://github.com/hakimel/reveal.js.git"
	revealCDN     = "https://cdnjs.cloudflare.com/ajax/libs/reveal.js/%s/"
)

// RevealCDN is the fallback location of the pinned reveal.js release.
func RevealCDN() string {
	return fmt.Sprintf(revealCDN, RevealVersion)
}

// RunFunc runs a command and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// RevealFetcher provides a local reveal.js checkout, falling back to the CDN.
type RevealFetcher struct {
	git    string
	dest   string
	run    RunFunc
	logger *zap.Logger
}

// FetcherOption configures a RevealFetcher.
type FetcherOption func(*RevealFetcher)

// WithRunner replaces command execution (tests).
func WithRunner(run RunFunc) FetcherOption {
	return func(f *RevealFetcher) {
		if run != nil {
			f.run = run
		}
	}
}

// WithFetchLogger sets the logger. Defaults to zap.NewNop().
func WithFetchLogger(l *zap.Logger) FetcherOption {
	return func(f *RevealFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewRevealFetcher clones into dest with git. An empty git path means git
// is unavailable and the CDN is used unless dest already exists.
func NewRevealFetcher(git, dest string, opts ...FetcherOption) *RevealFetcher {
	f := &RevealFetcher{git: git, dest: dest, run: runCommand, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve returns the reveal.js location for decks: override when set,
// else the existing or freshly cloned checkout, else the CDN. Only
// cancellation is an error; clone failures fall back with a warning.
func (f *RevealFetcher) Resolve(ctx context.Context, override string) (string, error) {
	if override != "" {
		return withSlash(override), nil
	}
	if fileutil.DirExists(f.dest) {
		return withSlash(f.dest), nil
	}
	if f.git == "" {
		f.logger.Warn("git not found, using reveal.js CDN", zap.String("url", RevealCDN()))
		return RevealCDN(), nil
	}

	out, err := f.run(ctx, f.git, "clone", "-b", RevealVersion, "-q", "--depth", "1", "--single-branch", RevealRepo, f.dest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("cloning reveal.js: %w", ctxErr)
		}
		f.logger.Warn("could not clone reveal.js, using CDN",
			zap.Error(err),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.String("url", RevealCDN()))
		return RevealCDN(), nil
	}
	f.logger.Info("cloned reveal.js", zap.String("dir", f.dest), zap.String("version", RevealVersion))
	return withSlash(f.dest), nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := process.Command(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}
