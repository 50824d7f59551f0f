package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/assets"
	"github.com/alnah/go-md2slides/internal/buildcache"
	"github.com/alnah/go-md2slides/internal/config"
	"github.com/alnah/go-md2slides/internal/deck"
	"github.com/alnah/go-md2slides/internal/export"
	"github.com/alnah/go-md2slides/internal/toolchain"
	"github.com/alnah/go-md2slides/internal/watch"
)

// revealDirName is the reveal.js checkout inside the build directory.
const revealDirName = "reveal_js"

// deckResult holds the outcome of building one input.
type deckResult struct {
	Input    string
	Report   *deck.FileReport
	PDF      string
	Err      error
	Duration time.Duration
}

// buildSession holds everything shared by the decks of one invocation.
type buildSession struct {
	cfg       *config.Config
	builder   *deck.Builder
	index     *deck.Index      // nil with --no-index
	exporter  *export.Exporter // nil without --pdf
	timeout   time.Duration
	languages []string
	logger    *zap.Logger
}

// runBuildCmd parses flags, resolves configuration and builds every input.
func runBuildCmd(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common)
	defer func() { _ = logger.Sync() }()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	undo, _ := maxprocs.Set(maxprocs.Logger(logger.Sugar().Debugf))
	defer undo()

	cfg, err := resolveConfig(flags, env, logger)
	if err != nil {
		return withHints(err, hintContext{configName: flags.common.config})
	}
	return runBuild(ctx, inputs, flags, cfg, env, logger)
}

// runBuild builds every non-ignored input, writes the index, prints the
// report, and optionally keeps watching. A failing deck does not stop the
// others; the returned error reports how many failed.
func runBuild(ctx context.Context, inputs []string, flags *buildFlags, cfg *config.Config, env *Environment, logger *zap.Logger) error {
	inputs = filterInputs(inputs, cfg.Deck.Ignore, logger)
	if len(inputs) == 0 {
		return fmt.Errorf("%w: pass one or more markdown files", ErrNoInput)
	}

	s, err := newBuildSession(ctx, cfg, env, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	results := s.buildAll(ctx, inputs)
	if err := s.writeIndex(results); err != nil {
		return err
	}

	rep := newReporter(env.Stdout, env.Stderr, flags.common, hintContext{languages: s.languages})
	failed := rep.print(results)

	if flags.watch {
		return s.watch(ctx, inputs, rep)
	}
	if failed > 0 {
		return &buildFailure{failed: failed, total: len(results), first: firstError(results)}
	}
	return nil
}

// filterInputs drops inputs matching the ignore glob.
func filterInputs(inputs []string, pattern string, logger *zap.Logger) []string {
	kept := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if deck.MatchIgnore(pattern, in) {
			logger.Info("ignored by pattern", zap.String("input", in), zap.String("pattern", pattern))
			continue
		}
		kept = append(kept, in)
	}
	return kept
}

// newBuildSession wires the build cache, handlers, templates, reveal.js and
// optional exporter for cfg.
func newBuildSession(ctx context.Context, cfg *config.Config, env *Environment, logger *zap.Logger) (*buildSession, error) {
	buildTimeout, err := cfg.BuildTimeout()
	if err != nil {
		return nil, err
	}

	store, err := buildcache.New(cfg.Build.Dir)
	if err != nil {
		return nil, err
	}
	reg, err := env.NewRegistry(ctx, registryDeps{cfg: cfg, store: store, finder: env.Finder, logger: logger})
	if err != nil {
		return nil, err
	}
	proc, err := md2slides.NewProcessor(reg,
		md2slides.WithLogger(logger),
		md2slides.WithTokenPrefix(cfg.Build.TokenPrefix))
	if err != nil {
		return nil, err
	}

	loader, err := assets.NewAssetResolver(cfg.Deck.Assets)
	if err != nil {
		return nil, err
	}
	tmpl, err := assets.LoadSlidesTemplate(loader, cfg.Deck.Template)
	if err != nil {
		return nil, err
	}
	begin, err := deck.ReadSlide(cfg.Deck.BeginSlide)
	if err != nil {
		return nil, fmt.Errorf("begin slide: %w", err)
	}
	end, err := deck.ReadSlide(cfg.Deck.EndSlide)
	if err != nil {
		return nil, fmt.Errorf("end slide: %w", err)
	}

	reveal, err := resolveRevealJS(ctx, cfg, env.Finder, logger)
	if err != nil {
		return nil, err
	}

	opts := []deck.BuilderOption{
		deck.WithOutputPrefix(cfg.Deck.OutputPrefix),
		deck.WithRevealJS(reveal),
		deck.WithSlides(begin, end),
		deck.WithLogger(logger),
	}
	if cfg.Deck.Preview {
		css, err := loader.LoadStyle(assets.PreviewStyleName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, deck.WithPreview(css))
	}
	builder, err := deck.NewBuilder(proc, tmpl, opts...)
	if err != nil {
		return nil, err
	}

	s := &buildSession{
		cfg:       cfg,
		builder:   builder,
		timeout:   buildTimeout,
		languages: languageNames(reg),
		logger:    logger,
	}

	if !cfg.Deck.NoIndex {
		indexTmpl, err := loader.LoadTemplate(assets.IndexTemplateName)
		if err != nil {
			return nil, err
		}
		if s.index, err = deck.NewIndex(indexTmpl); err != nil {
			return nil, err
		}
	}

	if cfg.Export.PDF {
		exportTimeout, err := cfg.ExportTimeout()
		if err != nil {
			return nil, err
		}
		s.exporter = export.New(exportTimeout, export.WithLogger(logger))
	}
	return s, nil
}

// resolveRevealJS returns the reveal.js location, cloning it into the
// build directory when no override is configured. Without an override git
// is required; only a failed clone falls back to the CDN.
func resolveRevealJS(ctx context.Context, cfg *config.Config, finder *toolchain.Finder, logger *zap.Logger) (string, error) {
	var git string
	if cfg.Deck.RevealJSPath == "" {
		tool, err := finder.Find(ctx, toolchain.Git, cfg.Toolchain.Git)
		if err != nil {
			return "", fmt.Errorf("reveal.js checkout: %w", err)
		}
		git = tool.Path
		logger.Debug("found git", zap.String("path", git), zap.String("source", string(tool.Source)))
	}
	fetcher := deck.NewRevealFetcher(git, filepath.Join(cfg.Build.Dir, revealDirName), deck.WithFetchLogger(logger))
	return fetcher.Resolve(ctx, cfg.Deck.RevealJSPath)
}

// Close releases the exporter's browser, if any.
func (s *buildSession) Close() {
	if s.exporter != nil {
		if err := s.exporter.Close(); err != nil {
			s.logger.Warn("closing browser", zap.Error(err))
		}
	}
}

// buildAll builds inputs in order. Decks are independent, but handlers run
// one at a time so compiler output and timings stay readable.
func (s *buildSession) buildAll(ctx context.Context, inputs []string) []deckResult {
	results := make([]deckResult, 0, len(inputs))
	for _, in := range inputs {
		if ctx.Err() != nil {
			results = append(results, deckResult{Input: in, Err: ctx.Err()})
			continue
		}
		results = append(results, s.buildOne(ctx, in))
	}
	return results
}

func (s *buildSession) buildOne(ctx context.Context, input string) deckResult {
	start := time.Now()
	res := deckResult{Input: input}

	buildCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	report, err := s.builder.BuildFile(buildCtx, input)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	res.Report = report

	if s.exporter != nil && !report.Ignored {
		if res.PDF, err = s.exporter.Export(ctx, report.Output); err != nil {
			res.Err = fmt.Errorf("exporting %s: %w", report.Output, err)
		}
	}

	res.Duration = time.Since(start)
	return res
}

// writeIndex lists every deck that was written.
func (s *buildSession) writeIndex(results []deckResult) error {
	if s.index == nil {
		return nil
	}
	var built []string
	for _, r := range results {
		if r.Report != nil && !r.Report.Ignored {
			built = append(built, r.Input)
		}
	}
	if len(built) == 0 {
		return nil
	}
	path, err := s.builder.WriteIndex(s.index, built)
	if err != nil {
		return err
	}
	s.logger.Debug("index written", zap.String("path", path), zap.Int("decks", len(built)))
	return nil
}

// watch rebuilds changed inputs until ctx is canceled. Build failures are
// reported and watching continues.
func (s *buildSession) watch(ctx context.Context, inputs []string, rep *reporter) error {
	// The watcher reports absolute paths; decks are named after the inputs
	// as given.
	byAbs := make(map[string]string, len(inputs))
	for _, in := range inputs {
		if abs, err := filepath.Abs(in); err == nil {
			byAbs[abs] = in
		}
	}

	w, err := watch.New(inputs, func(ctx context.Context, files []string) {
		changed := make([]string, 0, len(files))
		for _, f := range files {
			if in, ok := byAbs[f]; ok {
				changed = append(changed, in)
			}
		}
		rep.print(s.buildAll(ctx, changed))
	}, watch.WithLogger(s.logger))
	if err != nil {
		return err
	}
	rep.notice(fmt.Sprintf("watching %d file(s), press Ctrl+C to stop", len(inputs)))
	return w.Run(ctx)
}

func firstError(results []deckResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
