package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2slides/internal/deck"
	"github.com/alnah/go-md2slides/internal/hints"
	"github.com/alnah/go-md2slides/internal/toolchain"
)

// Doctor statuses, worst last.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorReport is what "md2slides doctor" found.
type doctorReport struct {
	Status    string       `json:"status"`
	Platform  string       `json:"platform"`
	Tools     []toolReport `json:"tools"`
	Sandbox   sandboxInfo  `json:"sandbox"`
	TempDir   string       `json:"temp_dir"`
	RevealCDN string       `json:"reveal_js_fallback"`
	Warnings  []string     `json:"warnings,omitempty"`
	Errors    []string     `json:"errors,omitempty"`
}

// toolReport is one external program the build may use.
type toolReport struct {
	Use      string          `json:"use"`
	Required bool            `json:"required"`
	Tool     *toolchain.Tool `json:"tool,omitempty"`
}

// sandboxInfo describes where the browser would run for --pdf.
type sandboxInfo struct {
	Container string `json:"container,omitempty"` // detection signal
	CI        bool   `json:"ci"`
	Disabled  bool   `json:"disabled"` // ROD_NO_SANDBOX=1
}

// doctorCheck is one toolchain lookup. Missing optional tools only warn.
type doctorCheck struct {
	use      string
	spec     toolchain.Spec
	required bool
}

var doctorChecks = []doctorCheck{
	{use: "cpp", spec: toolchain.CXX, required: true},
	{use: "c", spec: toolchain.CC},
	{use: "python", spec: toolchain.Python},
	{use: "reveal.js clone", spec: toolchain.Git, required: true},
}

// browserUse names the browser entry in the tool list.
const browserUse = "pdf export"

// lookChrome locates a browser; replaced in tests.
var lookChrome = launcher.LookPath

// runDoctorCmd checks the toolchains and prints a report. It exits with
// ExitGeneral only when a required tool is missing.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	report := diagnose(ctx, env)
	if *asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		report.print(env.Stdout)
	}

	if report.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func diagnose(ctx context.Context, env *Environment) *doctorReport {
	r := &doctorReport{
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		RevealCDN: deck.RevealCDN(),
	}

	for _, c := range doctorChecks {
		r.addTool(ctx, env.Finder, c)
	}
	r.addBrowser(ctx, env)
	r.Sandbox = detectSandbox(env.Getenv)
	if r.hasBrowser() && (r.Sandbox.Container != "" || r.Sandbox.CI) && !r.Sandbox.Disabled {
		r.Warnings = append(r.Warnings, "running in a container or CI: set ROD_NO_SANDBOX=1 for --pdf")
	}
	r.checkTempDir()

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	default:
		r.Status = statusReady
	}
	return r
}

func (r *doctorReport) addTool(ctx context.Context, finder *toolchain.Finder, c doctorCheck) {
	entry := toolReport{Use: c.use, Required: c.required}
	tool, err := finder.Find(ctx, c.spec, "")
	if err == nil {
		entry.Tool = &tool
		r.Tools = append(r.Tools, entry)
		return
	}
	r.Tools = append(r.Tools, entry)

	msg := err.Error() + toolHint(c.spec)
	if c.required {
		r.Errors = append(r.Errors, msg)
		return
	}
	r.Warnings = append(r.Warnings, msg)
}

func toolHint(spec toolchain.Spec) string {
	switch {
	case errors.Is(spec.Err, toolchain.ErrNoCompiler):
		return hints.ForCompilerNotFound(spec.EnvVar, spec.Candidates)
	case errors.Is(spec.Err, toolchain.ErrNoPython):
		return hints.ForPythonNotFound()
	case errors.Is(spec.Err, toolchain.ErrNoGit):
		return hints.ForGitNotFound()
	}
	return ""
}

// addBrowser looks for Chrome the way rod does: ROD_BROWSER_BIN first, then
// the launcher's well-known locations. Only --pdf needs it.
func (r *doctorReport) addBrowser(ctx context.Context, env *Environment) {
	entry := toolReport{Use: browserUse}
	defer func() { r.Tools = append(r.Tools, entry) }()

	tool := toolchain.Tool{Kind: "Chrome/Chromium", Path: env.Getenv("ROD_BROWSER_BIN"), Source: toolchain.SourceEnv}
	if tool.Path == "" {
		path, ok := lookChrome()
		if !ok {
			r.Warnings = append(r.Warnings, "Chrome/Chromium not found; --pdf is unavailable"+hints.ForBrowserConnect())
			return
		}
		tool.Path, tool.Source = path, toolchain.SourcePath
	}

	version, err := env.Finder.Probe(ctx, tool.Path)
	if err != nil {
		r.Warnings = append(r.Warnings, fmt.Sprintf("browser %s does not start: %v", tool.Path, err))
		return
	}
	tool.Version = version
	entry.Tool = &tool
}

func (r *doctorReport) hasBrowser() bool {
	for _, t := range r.Tools {
		if t.Use == browserUse {
			return t.Tool != nil
		}
	}
	return false
}

// detectSandbox reports container and CI signals from the environment.
func detectSandbox(getenv func(string) string) sandboxInfo {
	info := sandboxInfo{Disabled: getenv("ROD_NO_SANDBOX") == "1"}

	switch {
	case getenv("MD2SLIDES_CONTAINER") == "1":
		info.Container = "MD2SLIDES_CONTAINER=1"
	case hints.IsInContainer():
		info.Container = "/.dockerenv"
	case getenv("container") != "":
		info.Container = "container=" + getenv("container")
	case getenv("KUBERNETES_SERVICE_HOST") != "":
		info.Container = "KUBERNETES_SERVICE_HOST"
	}

	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if getenv(v) != "" {
			info.CI = true
			break
		}
	}
	return info
}

// checkTempDir verifies Python sources can be staged in the temp directory.
func (r *doctorReport) checkTempDir() {
	f, err := os.CreateTemp("", "md2slides-doctor-*")
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("temp directory %s is not writable: %v", os.TempDir(), err))
		return
	}
	r.TempDir = os.TempDir()
	_ = f.Close()
	_ = os.Remove(f.Name())
}

func (r *doctorReport) print(w io.Writer) {
	fmt.Fprintf(w, "md2slides doctor (%s)\n\n", r.Platform)

	fmt.Fprintln(w, "Tools")
	for _, t := range r.Tools {
		switch {
		case t.Tool != nil && t.Tool.Version != "":
			fmt.Fprintf(w, "  [OK]    %-16s %s (%s)\n", t.Use, t.Tool.Path, t.Tool.Version)
		case t.Tool != nil:
			fmt.Fprintf(w, "  [OK]    %-16s %s\n", t.Use, t.Tool.Path)
		case t.Required:
			fmt.Fprintf(w, "  [ERROR] %-16s not found\n", t.Use)
		default:
			fmt.Fprintf(w, "  [WARN]  %-16s not found\n", t.Use)
		}
	}
	fmt.Fprintf(w, "  [OK]    %-16s built in\n", "go")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	if r.Sandbox.Container != "" {
		fmt.Fprintf(w, "  container: %s\n", r.Sandbox.Container)
	}
	if r.Sandbox.CI {
		fmt.Fprintln(w, "  CI: yes")
	}
	if r.Sandbox.Disabled {
		fmt.Fprintln(w, "  browser sandbox: disabled")
	}
	if r.TempDir != "" {
		fmt.Fprintf(w, "  temp directory: %s\n", r.TempDir)
	}
	fmt.Fprintf(w, "  reveal.js fallback: %s\n", r.RevealCDN)
	fmt.Fprintln(w)

	for _, msg := range r.Errors {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
	if len(r.Errors)+len(r.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: ready to build")
	case statusWarnings:
		fmt.Fprintln(w, "Status: ready, some features unavailable")
	case statusErrors:
		fmt.Fprintln(w, "Status: not ready")
	}
}
