// Package export prints slide decks to PDF with headless Chrome, using the
// reveal.js print layout (one slide per page).
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-md2slides/internal/fileutil"
)

// Sentinel errors for PDF export.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load deck")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// DefaultTimeout bounds page load and layout when the context has no deadline.
const DefaultTimeout = 60 * time.Second

// printQuery switches reveal.js to its print stylesheet.
const printQuery = "print-pdf"

// revealReady waits until reveal.js has laid out every slide.
const revealReady = `() => !window.Reveal || (typeof Reveal.isReady === "function" && Reveal.isReady())`

// renderer abstracts PDF rendering from a URL to enable testing without a browser.
type renderer interface {
	Render(ctx context.Context, pageURL string) ([]byte, error)
	Close() error
}

var _ renderer = (*rodRenderer)(nil)

// Exporter writes a PDF next to each deck.
type Exporter struct {
	renderer renderer
	logger   *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// withRenderer replaces the browser (tests).
func withRenderer(r renderer) Option {
	return func(e *Exporter) {
		e.renderer = r
	}
}

// New creates an Exporter. The browser starts lazily on the first export.
// A zero timeout selects DefaultTimeout.
func New(timeout time.Duration, opts ...Option) *Exporter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Exporter{renderer: &rodRenderer{timeout: timeout}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PDFPath is the PDF written for a deck file.
func PDFPath(deck string) string {
	return strings.TrimSuffix(deck, filepath.Ext(deck)) + ".pdf"
}

// Export renders deck (an HTML file) and writes PDFPath(deck).
func (e *Exporter) Export(ctx context.Context, deck string) (string, error) {
	abs, err := filepath.Abs(deck)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if !fileutil.FileExists(abs) {
		return "", fmt.Errorf("%w: no such file: %s", ErrPageLoad, deck)
	}

	data, err := e.renderer.Render(ctx, PrintURL(abs))
	if err != nil {
		return "", err
	}

	out := PDFPath(deck)
	if err := fileutil.WriteFileAtomic(out, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	e.logger.Debug("pdf written", zap.String("deck", deck), zap.String("pdf", out), zap.Int("bytes", len(data)))
	return out, nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	return e.renderer.Close()
}

// PrintURL is the file URL of an absolute deck path in print mode.
func PrintURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath), RawQuery: printQuery}
	return u.String()
}

// rodRenderer implements renderer using go-rod.
// Rod downloads Chromium on first run if no browser is found.
type rodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	// Pre-installed browser (Docker/containerized environments).
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox is required in CI and containers.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// Render opens pageURL, waits for reveal.js, and prints with the page's own
// size so each slide fills one PDF page.
func (r *rodRenderer) Render(ctx context.Context, pageURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := page.Timeout(timeout).Wait(rod.Eval(revealReady)); err != nil {
		return nil, fmt.Errorf("%w: reveal.js not ready: %v", ErrPageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdf, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
