// Package pyexec runs Python code blocks in a separate interpreter process.
//
// A small prelude replaces exit, quit and sys.exit so that the exit value
// becomes the run status, optionally replaces open with a canned reader,
// and seeds globals (and optionally a separate locals mapping) from the
// block's flags. Output is stdout and stderr joined in call order.
//
// Namespaces cross the process boundary as JSON, so only JSON-serializable
// values can be seeded. Python objects such as functions or modules cannot.
package pyexec

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/fileutil"
	"github.com/alnah/go-md2slides/internal/process"
)

var _ md2slides.Handler = (*Handler)(nil)

// Flag keys read from md2slides.Flags.
const (
	FlagGlobals  = "globals"   // map[string]any, JSON-serializable
	FlagLocals   = "locals"    // map[string]any, JSON-serializable; exec locals when set
	FlagMockOpen = "mock-open" // bool
)

//go:embed prelude.py
var prelude string

// Handler runs Python code with one interpreter.
type Handler struct {
	interpreter string
	mockOpen    bool
	logger      *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMockOpen sets whether open is replaced by default (default true).
// A block's mock-open flag overrides it.
func WithMockOpen(enabled bool) Option {
	return func(h *Handler) {
		h.mockOpen = enabled
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

// New creates a Handler for interpreter (e.g. "python3").
func New(interpreter string, opts ...Option) (*Handler, error) {
	if interpreter == "" {
		return nil, fmt.Errorf("python handler: interpreter cannot be empty")
	}
	h := &Handler{interpreter: interpreter, mockOpen: true, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle runs code and reports a run-only result.
func (h *Handler) Handle(ctx context.Context, code string, flags md2slides.Flags, _ md2slides.Metadata) (*md2slides.ExecutionResult, error) {
	seeded, err := GlobalsJSON(flags)
	if err != nil {
		return nil, err
	}
	locals, err := LocalsJSON(flags)
	if err != nil {
		return nil, err
	}
	mockOpen := h.mockOpen
	if v, ok := flags[FlagMockOpen].(bool); ok {
		mockOpen = v
	}

	srcPath, cleanup, err := fileutil.WriteTempFile(code, "py")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmd := process.Command(ctx, h.interpreter, "-u", "-c", prelude, srcPath, seeded, boolArg(mockOpen), locals)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	status, err := process.ExitStatus(ctx, cmd.Run())
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", h.interpreter, err)
	}
	h.logger.Debug("python finished", zap.Int("status", status), zap.Bool("mock_open", mockOpen))

	return &md2slides.ExecutionResult{
		Run: &md2slides.RunOutcome{Output: out.String(), Status: status},
	}, nil
}

// GlobalsJSON encodes the globals flag as a JSON object ("{}" when absent).
func GlobalsJSON(flags md2slides.Flags) (string, error) {
	return namespaceJSON(flags, FlagGlobals, "{}")
}

// LocalsJSON encodes the locals flag as a JSON object ("null" when absent,
// which makes the code run with globals only).
func LocalsJSON(flags md2slides.Flags) (string, error) {
	return namespaceJSON(flags, FlagLocals, "null")
}

func namespaceJSON(flags md2slides.Flags, key, absent string) (string, error) {
	raw, ok := flags[key]
	if !ok || raw == nil {
		return absent, nil
	}
	ns, ok := raw.(map[string]any)
	if !ok {
		return "", fmt.Errorf("python handler: %s flag must be map[string]any, got %T", key, raw)
	}
	data, err := json.Marshal(ns)
	if err != nil {
		return "", fmt.Errorf("python handler: encoding %s: %w", key, err)
	}
	return string(data), nil
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
