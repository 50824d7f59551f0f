package deck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/fileutil"
)

// ErrReadInput indicates a markdown input or slide file could not be read.
var ErrReadInput = errors.New("cannot read input")

// outputPerm is the mode of written decks and indexes.
const outputPerm = 0o644

// DocumentProcessor rewrites the directives of one document.
type DocumentProcessor interface {
	Process(ctx context.Context, doc md2slides.Document) (*md2slides.Result, error)
}

// FileReport describes one built input.
type FileReport struct {
	Input   string
	Output  string // empty when ignored
	Preview string // empty unless previews are enabled
	Title   string
	Ignored bool
	Result  *md2slides.Result
}

// Builder turns markdown files into deck files.
type Builder struct {
	proc       DocumentProcessor
	template   string
	prefix     string
	revealJS   string
	begin      string
	end        string
	previewer  *Previewer
	previewCSS string
	logger     *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithOutputPrefix prepends prefix to every output path.
func WithOutputPrefix(prefix string) BuilderOption {
	return func(b *Builder) {
		b.prefix = prefix
	}
}

// WithRevealJS sets the reveal.js directory or URL.
func WithRevealJS(location string) BuilderOption {
	return func(b *Builder) {
		b.revealJS = location
	}
}

// WithSlides sets the markdown prepended and appended to every deck.
func WithSlides(begin, end string) BuilderOption {
	return func(b *Builder) {
		b.begin, b.end = begin, end
	}
}

// WithPreview enables the static preview page styled with css.
func WithPreview(css string) BuilderOption {
	return func(b *Builder) {
		b.previewer = NewPreviewer()
		b.previewCSS = css
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder filling slidesTemplate.
func NewBuilder(proc DocumentProcessor, slidesTemplate string, opts ...BuilderOption) (*Builder, error) {
	if proc == nil {
		return nil, fmt.Errorf("deck builder: processor cannot be nil")
	}
	b := &Builder{proc: proc, template: slidesTemplate, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// ReadSlide reads an optional begin or end slide file. Empty path yields "".
func ReadSlide(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided slide path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return string(data), nil
}

// BuildFile processes input and writes its deck. A processing error leaves
// no output for this input.
func (b *Builder) BuildFile(ctx context.Context, input string) (*FileReport, error) {
	data, err := os.ReadFile(input) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	report := &FileReport{Input: input}

	markdown := string(data)
	if IsIgnored(markdown) {
		b.logger.Info("ignored file", zap.String("input", input))
		report.Ignored = true
		return report, nil
	}

	result, err := b.proc.Process(ctx, md2slides.Document{
		Name:     input,
		Markdown: markdown,
		Metadata: md2slides.Metadata{md2slides.MetaFilename: CacheName(input)},
	})
	if err != nil {
		return nil, err
	}
	report.Result = result
	report.Title = Title(result.Markdown, input)
	assembled := Assemble(b.begin, result.Markdown, b.end)

	report.Output = OutputPath(b.prefix, input)
	page := Page{Title: report.Title, RevealJS: RevealHref(b.revealJS, report.Output), Markdown: assembled}
	if err := writeOutput(report.Output, Fill(b.template, page)); err != nil {
		return nil, err
	}

	if b.previewer != nil {
		html, err := b.previewer.Render(ctx, assembled, report.Title, b.previewCSS)
		if err != nil {
			return nil, err
		}
		report.Preview = PreviewPath(b.prefix, input)
		html, err = RebaseLinks(html, filepath.Dir(input), filepath.Dir(report.Preview))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPreviewConversion, err)
		}
		if err := writeOutput(report.Preview, html); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("deck written",
		zap.String("input", input),
		zap.String("output", report.Output),
		zap.Int("blocks", len(result.Blocks)))
	return report, nil
}

// WriteIndex renders and writes the contents index for inputs.
func (b *Builder) WriteIndex(index *Index, inputs []string) (string, error) {
	content, err := index.Render(b.prefix, inputs)
	if err != nil {
		return "", err
	}
	path := IndexPath(b.prefix)
	if err := writeOutput(path, content); err != nil {
		return "", err
	}
	return path, nil
}

func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, []byte(content), outputPerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
