// Package goexec interprets Go code blocks with yaegi.
//
// Code is compiled first (the compile step) and then executed (the run
// step). Snippets may be a full program, top-level declarations, or bare
// statements; used standard library packages are imported implicitly.
//
// Compilation happens in process and never runs snippet code. Execution
// happens in a child process started as "<executable> __goexec", which reads
// the code on stdin and hosts the interpreter through Main. The child ends
// the way a compiled program would: os.Exit and log.Fatal end the process
// from any goroutine, and an uncaught panic in any goroutine crashes it
// with status 2. The interpreter is a trust boundary, not a sandbox.
package goexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/process"
)

var _ md2slides.Handler = (*Handler)(nil)

// ChildCommand is the hidden subcommand that runs one snippet. A binary
// hosting a Handler must dispatch it to Main.
const ChildCommand = "__goexec"

// Run statuses that do not come from os.Exit.
const (
	FatalStatus = 1 // log.Fatal*
	PanicStatus = 2 // uncaught panic, as the go runtime reports it
)

// CompileFailureStatus is the compile status for code that does not compile.
const CompileFailureStatus = 1

// Handler interprets Go code.
type Handler struct {
	executable string
	args       []string
	logger     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithExecutable sets the program started for the run step and its
// arguments. Defaults to the running executable with ChildCommand.
func WithExecutable(path string, args ...string) Option {
	return func(h *Handler) {
		h.executable = path
		h.args = args
	}
}

// New creates a Handler.
func New(opts ...Option) *Handler {
	h := &Handler{args: []string{ChildCommand}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle compiles code in a fresh interpreter and runs it in a child process.
func (h *Handler) Handle(ctx context.Context, code string, _ md2slides.Flags, _ md2slides.Metadata) (*md2slides.ExecutionResult, error) {
	var compileOut bytes.Buffer
	i, err := newInterpreter(strings.NewReader(""), &compileOut, &compileOut)
	if err != nil {
		return nil, err
	}
	if _, err := compile(i, code); err != nil {
		h.logger.Debug("go compile failed", zap.Error(err))
		return &md2slides.ExecutionResult{
			Compile: &md2slides.CompileOutcome{Output: err.Error(), Status: CompileFailureStatus},
		}, nil
	}
	result := &md2slides.ExecutionResult{
		Compile: &md2slides.CompileOutcome{Output: compileOut.String(), Status: md2slides.StatusSuccess},
	}

	exe := h.executable
	if exe == "" {
		if exe, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("locating go runner: %w", err)
		}
	}

	cmd := process.Command(ctx, exe, h.args...)
	cmd.Stdin = strings.NewReader(code)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	status, err := process.ExitStatus(ctx, cmd.Run())
	if err != nil {
		return nil, fmt.Errorf("running go code: %w", err)
	}
	h.logger.Debug("go finished", zap.Int("status", status))

	result.Run = &md2slides.RunOutcome{Output: out.String(), Status: status}
	return result, nil
}

// Main runs the snippet read from stdin and returns the process status.
// Snippet calls to os.Exit and log.Fatal end the process directly.
func Main(stdin io.Reader, stdout, stderr io.Writer) int {
	code, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "reading go code: %v\n", err)
		return FatalStatus
	}

	i, err := newInterpreter(strings.NewReader(""), stdout, stderr, exits(stderr))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return FatalStatus
	}

	prog, err := compile(i, string(code))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return CompileFailureStatus
	}
	if _, err := i.Execute(prog); err != nil {
		var p interp.Panic
		if errors.As(err, &p) {
			fmt.Fprintf(stderr, "panic: %v\n", p.Value)
		} else {
			fmt.Fprintln(stderr, err)
		}
		return PanicStatus
	}
	return md2slides.StatusSuccess
}

func newInterpreter(stdin io.Reader, stdout, stderr io.Writer, overrides ...interp.Exports) (*interp.Interpreter, error) {
	i := interp.New(interp.Options{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Args:   []string{"slide"},
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading go stdlib symbols: %w", err)
	}
	for _, o := range overrides {
		if err := i.Use(o); err != nil {
			return nil, fmt.Errorf("loading go overrides: %w", err)
		}
	}
	i.ImportUsed()
	return i, nil
}

// compile turns interpreter panics on malformed code into compile errors.
func compile(i *interp.Interpreter, code string) (prog *interp.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			prog, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return i.Compile(code)
}

// osExit ends the runner process.
var osExit = os.Exit

// exits restores the process-ending functions the restricted yaegi
// standard library turns into panics.
func exits(stderr io.Writer) interp.Exports {
	fatal := func(msg string) {
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		_, _ = io.WriteString(stderr, msg)
		osExit(FatalStatus)
	}
	return interp.Exports{
		"os/os": {
			"Exit": reflect.ValueOf(func(code int) { osExit(code) }),
		},
		"log/log": {
			"Fatal":   reflect.ValueOf(func(v ...any) { fatal(fmt.Sprint(v...)) }),
			"Fatalf":  reflect.ValueOf(func(format string, v ...any) { fatal(fmt.Sprintf(format, v...)) }),
			"Fatalln": reflect.ValueOf(func(v ...any) { fatal(fmt.Sprintln(v...)) }),
		},
	}
}
