package md2slides

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultTokenPrefix prefixes every outcome token written into a document,
// e.g. "rayjs-running". Slide stylesheets key on these class names.
const DefaultTokenPrefix = "rayjs"

// WarningKind classifies a non-fatal finding.
type WarningKind int

const (
	// WarningSkipped marks a directive whose wants contains "nothing".
	WarningSkipped WarningKind = iota
	// WarningUnmatched marks a "wants=" line the directive grammar rejected.
	WarningUnmatched
)

// String returns a short label for the kind.
func (k WarningKind) String() string {
	switch k {
	case WarningSkipped:
		return "skipped"
	case WarningUnmatched:
		return "unmatched"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal finding reported alongside a processed document.
type Warning struct {
	Kind WarningKind
	Line int
	Text string
}

// String formats the warning as "line N: kind: text".
func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %s", w.Line, w.Kind, w.Text)
}

// Document is one markdown input.
type Document struct {
	Name     string   // used in errors and logs only
	Markdown string   // raw content
	Metadata Metadata // threaded to handlers; never modified
}

// BlockReport describes one processed directive.
type BlockReport struct {
	Line     int
	Language Language
	Wants    string
	Token    string // full token written into the document; empty when skipped
	Skipped  bool
	Result   *ExecutionResult
}

// Result is the output of Process.
type Result struct {
	Markdown string
	Blocks   []BlockReport
	Warnings []Warning
}

// BlockError reports the directive that aborted a document.
type BlockError struct {
	Document string
	Line     int
	Language string // tag as written in the fence
	Code     string
	Err      error
}

// Error implements error.
func (e *BlockError) Error() string {
	name := e.Document
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d: %s block: %v", name, e.Line, e.Language, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BlockError) Unwrap() error {
	return e.Err
}

// Processor rewrites the directives of markdown documents.
// It keeps no state between Process calls.
type Processor struct {
	registry    *Registry
	logger      *zap.Logger
	tokenPrefix string
	flags       Flags
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTokenPrefix sets the prefix of outcome tokens. Empty keeps the default.
func WithTokenPrefix(prefix string) Option {
	return func(p *Processor) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			p.tokenPrefix = prefix
		}
	}
}

// WithFlags sets the flags passed to every handler.
func WithFlags(flags Flags) Option {
	return func(p *Processor) {
		p.flags = flags
	}
}

// NewProcessor creates a Processor dispatching through reg.
func NewProcessor(reg *Registry, opts ...Option) (*Processor, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	p := &Processor{
		registry:    reg,
		logger:      zap.NewNop(),
		tokenPrefix: DefaultTokenPrefix,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process runs every directive of doc in order of appearance and returns
// the rewritten markdown. Processing is all-or-nothing: the first failing
// directive aborts the document with a *BlockError.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (p *Processor) Process(ctx context.Context, doc Document) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	log := p.logger.With(zap.String("document", doc.Name))
	src := doc.Markdown
	directives := ParseDirectives(src)

	res := &Result{Warnings: FindUnmatched(src, directives)}
	for _, w := range res.Warnings {
		log.Warn("directive not recognized", zap.Int("line", w.Line), zap.String("text", w.Text))
	}

	state := NewAppendState()
	var out strings.Builder
	out.Grow(len(src) + len(directives)*len(p.tokenPrefix))
	last := 0

	for _, d := range directives {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report, err := p.processBlock(ctx, log, doc, state, d)
		if err != nil {
			return nil, &BlockError{
				Document: doc.Name,
				Line:     d.Line,
				Language: d.Tag,
				Code:     d.Code,
				Err:      err,
			}
		}
		res.Blocks = append(res.Blocks, report)

		if report.Skipped {
			res.Warnings = append(res.Warnings, Warning{Kind: WarningSkipped, Line: d.Line, Text: d.Wants})
			continue
		}

		out.WriteString(src[last:d.Keyword.Start])
		out.WriteString(NeutralKeyword)
		out.WriteString(src[d.Keyword.End:d.WantsSpan.Start])
		out.WriteString(report.Token)
		last = d.WantsSpan.End
	}
	out.WriteString(src[last:])

	sort.SliceStable(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].Line < res.Warnings[j].Line
	})
	res.Markdown = out.String()
	return res, nil
}

// processBlock resolves, runs and checks a single directive.
func (p *Processor) processBlock(ctx context.Context, log *zap.Logger, doc Document, state *AppendState, d Directive) (BlockReport, error) {
	report := BlockReport{Line: d.Line, Wants: d.Wants}

	w, err := ParseWants(d.Wants)
	if err != nil {
		return report, err
	}
	if w.Nothing {
		log.Info("block skipped", zap.Int("line", d.Line), zap.String("wants", d.Wants))
		report.Skipped = true
		return report, nil
	}

	_, lang, err := p.registry.Resolve(d.Tag)
	if err != nil {
		return report, err
	}
	report.Language = lang

	code := d.Code
	if w.Append {
		if code, err = state.Resolve(lang, w.AppendID, code); err != nil {
			return report, err
		}
	}
	state.Store(lang, d.ID, code)

	meta := doc.Metadata.Clone()
	if w.NoMain {
		meta[MetaNoMain] = "true"
	}

	log.Debug("running block",
		zap.Int("line", d.Line),
		zap.Stringer("language", lang),
		zap.String("wants", d.Wants),
		zap.Bool("append", w.Append),
		zap.Bool("no_main", meta.NoMain()),
	)

	result, err := p.registry.Dispatch(ctx, lang, code, p.flags, meta)
	if err != nil {
		return report, err
	}
	report.Result = result

	token, err := ResolveOutcome(result, w)
	if err != nil {
		return report, err
	}
	report.Token = p.tokenPrefix + "-" + token

	log.Debug("block resolved", zap.Int("line", d.Line), zap.String("token", report.Token))
	return report, nil
}
