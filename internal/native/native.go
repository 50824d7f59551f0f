// Package native compiles and runs C and C++ code blocks with an external
// compiler, reusing artifacts from the build cache.
package native

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/buildcache"
	"github.com/alnah/go-md2slides/internal/process"
)

var _ md2slides.Handler = (*Handler)(nil)

// metaLanguage namespaces cache keys of non-C++ languages so identical C
// and C++ snippets do not share artifacts.
const metaLanguage = "language"

// entryPoint is the marker that disables main wrapping.
const entryPoint = "main"

// Handler compiles code with one compiler and runs the result.
type Handler struct {
	store    *buildcache.Store
	compiler string
	flags    []string
	lang     md2slides.Language
	ext      string
	logger   *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithFlags sets extra compiler flags, placed before the output and source.
func WithFlags(flags ...string) Option {
	return func(h *Handler) {
		h.flags = append([]string(nil), flags...)
	}
}

// WithLanguage sets the language and source extension (default cpp, ".cpp").
func WithLanguage(lang md2slides.Language, ext string) Option {
	return func(h *Handler) {
		h.lang, h.ext = lang, ext
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Handler that builds into store with compiler.
func New(store *buildcache.Store, compiler string, opts ...Option) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("native handler: build cache cannot be nil")
	}
	if compiler == "" {
		return nil, fmt.Errorf("native handler: compiler cannot be empty")
	}
	h := &Handler{
		store:    store,
		compiler: compiler,
		lang:     md2slides.LanguageCpp,
		ext:      ".cpp",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Language returns the language this handler builds.
func (h *Handler) Language() md2slides.Language {
	return h.lang
}

// MakeSource returns the translation unit for code and whether it has an
// entry point. Compile-only requests never get one; code mentioning main is
// used as is; anything else is wrapped in "int main() { ... }".
func MakeSource(code string, noMain bool) (source string, hasMain bool) {
	if noMain {
		return code, false
	}
	if strings.Contains(code, entryPoint) {
		return code, true
	}
	return "int main() {\n" + code + "\n}", true
}

// Handle compiles code (or reuses a cached artifact) and runs it unless
// meta requests compile-only mode.
func (h *Handler) Handle(ctx context.Context, code string, _ md2slides.Flags, meta md2slides.Metadata) (*md2slides.ExecutionResult, error) {
	keyMeta := meta
	if h.lang != md2slides.LanguageCpp {
		keyMeta = meta.With(metaLanguage, string(h.lang))
	}
	name := buildcache.NewKey(code, keyMeta)

	source, hasMain := MakeSource(code, meta.NoMain())
	srcPath, err := h.store.WriteSource(name+h.ext, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("writing source: %w", err)
	}

	artifact := name
	if !hasMain {
		artifact += ".o"
	}

	entry, err := h.store.Ensure(ctx, artifact, func(ctx context.Context, out string) (buildcache.BuildOutput, error) {
		return h.compile(ctx, srcPath, out, !hasMain)
	})
	if err != nil {
		return nil, err
	}
	h.logger.Debug("compiled",
		zap.String("artifact", artifact),
		zap.Bool("cached", entry.Cached),
		zap.Int("status", entry.Output.Status),
	)

	result := &md2slides.ExecutionResult{
		Compile: &md2slides.CompileOutcome{Output: entry.Output.Log, Status: entry.Output.Status},
	}
	if !entry.Output.Succeeded() || !hasMain {
		return result, nil
	}

	run, err := h.run(ctx, entry.Path)
	if err != nil {
		return nil, err
	}
	result.Run = run
	return result, nil
}

// compile runs "<compiler> [flags] -o<out> <src> [-c]".
func (h *Handler) compile(ctx context.Context, src, out string, objectOnly bool) (buildcache.BuildOutput, error) {
	args := make([]string, 0, len(h.flags)+3)
	args = append(args, h.flags...)
	args = append(args, "-o"+out, src)
	if objectOnly {
		args = append(args, "-c")
	}

	cmd := process.Command(ctx, h.compiler, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	status, err := process.ExitStatus(ctx, cmd.Run())
	if err != nil {
		return buildcache.BuildOutput{}, fmt.Errorf("running %s: %w", h.compiler, err)
	}
	return buildcache.BuildOutput{Log: stderr.String(), Status: status}, nil
}

// run executes a built artifact and captures stdout and stderr together.
// Failures to start the artifact are reported as a failed run.
func (h *Handler) run(ctx context.Context, exe string) (*md2slides.RunOutcome, error) {
	cmd := process.Command(ctx, exe)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	status, err := process.ExitStatus(ctx, cmd.Run())
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		out.WriteString(err.Error())
		status = process.FailureStatus
	}
	return &md2slides.RunOutcome{Output: out.String(), Status: status}, nil
}
