// Package toolchain locates the external tools that code blocks need:
// C and C++ compilers, a Python interpreter and git.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-md2slides/internal/process"
)

// Sentinel errors for tool discovery.
var (
	ErrNoCompiler = errors.New("could not find compiler")
	ErrNoPython   = errors.New("could not find python interpreter")
	ErrNoGit      = errors.New("could not find git executable")
)

// ProbeTimeout bounds each "--version" probe.
const ProbeTimeout = 5 * time.Second

// Source records how a tool was found.
type Source string

const (
	SourceOverride Source = "config" // explicit path from flags or config
	SourceEnv      Source = "env"    // environment variable such as CXX
	SourceProbe    Source = "probe"  // candidate answered --version
	SourcePath     Source = "path"   // candidate found on PATH without a version
)

// Spec describes one kind of tool and how to find it.
type Spec struct {
	Kind       string   // human readable, e.g. "C++ compiler"
	EnvVar     string   // override variable; empty for none
	Candidates []string // probed in order
	Err        error    // returned when nothing is found
}

// Well-known tool specs.
var (
	CXX    = Spec{Kind: "C++ compiler", EnvVar: "CXX", Candidates: []string{"g++", "clang++"}, Err: ErrNoCompiler}
	CC     = Spec{Kind: "C compiler", EnvVar: "CC", Candidates: []string{"gcc", "clang", "cc"}, Err: ErrNoCompiler}
	Python = Spec{Kind: "Python interpreter", EnvVar: "PYTHON", Candidates: []string{"python3", "python"}, Err: ErrNoPython}
	Git    = Spec{Kind: "git", EnvVar: "GIT", Candidates: []string{"git"}, Err: ErrNoGit}
)

// Tool is a located executable.
type Tool struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	Source  Source `json:"source"`
}

// Finder locates tools. The function fields exist so tests can replace
// the environment, PATH lookup and version probe.
type Finder struct {
	Getenv   func(string) string
	LookPath func(string) (string, error)
	Probe    func(ctx context.Context, path string) (string, error)
}

// NewFinder returns a Finder bound to the real environment.
func NewFinder() *Finder {
	return &Finder{
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
		Probe:    probeVersion,
	}
}

// Find locates a tool for spec. Precedence: override, then the spec's
// environment variable, then the first candidate answering --version,
// then the first candidate present on PATH.
func (f *Finder) Find(ctx context.Context, spec Spec, override string) (Tool, error) {
	tool := Tool{Kind: spec.Kind}

	if override != "" {
		tool.Path, tool.Source = override, SourceOverride
		tool.Version, _ = f.Probe(ctx, override)
		return tool, nil
	}
	if spec.EnvVar != "" {
		if v := f.Getenv(spec.EnvVar); v != "" {
			tool.Path, tool.Source = v, SourceEnv
			tool.Version, _ = f.Probe(ctx, v)
			return tool, nil
		}
	}

	for _, name := range spec.Candidates {
		if version, err := f.Probe(ctx, name); err == nil {
			tool.Path, tool.Version, tool.Source = name, version, SourceProbe
			return tool, nil
		}
	}
	for _, name := range spec.Candidates {
		if path, err := f.LookPath(name); err == nil {
			tool.Path, tool.Source = path, SourcePath
			return tool, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Tool{}, err
	}
	return Tool{}, fmt.Errorf("%w: %s (tried %s)", spec.Err, spec.Kind, strings.Join(spec.Candidates, ", "))
}

// probeVersion runs "<path> --version" and returns the first output line.
func probeVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	out, err := process.Command(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
