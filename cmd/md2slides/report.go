package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Report colors.
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorFailure = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
)

// reporter prints build results. Styles are bound to each writer's own
// renderer so redirected output carries no escape codes.
type reporter struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	verbose bool
	hc      hintContext

	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}

func newReporter(out, errOut io.Writer, f commonFlags, hc hintContext) *reporter {
	outR := lipgloss.NewRenderer(out)
	errR := lipgloss.NewRenderer(errOut)
	return &reporter{
		out:     out,
		errOut:  errOut,
		quiet:   f.quiet,
		verbose: f.verbose,
		hc:      hc,
		ok:      outR.NewStyle().Foreground(colorSuccess).Bold(true),
		warn:    outR.NewStyle().Foreground(colorWarning).Bold(true),
		fail:    errR.NewStyle().Foreground(colorFailure).Bold(true),
		muted:   outR.NewStyle().Faint(true),
	}
}

// print writes one line per result and returns the number of failures.
func (r *reporter) print(results []deckResult) int {
	var built, skipped, failed int

	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(r.errOut, "%s %s: %v%s\n", r.fail.Render("FAILED"), res.Input, res.Err, hintFor(res.Err, r.hc))
			continue
		}
		if res.Report.Ignored {
			skipped++
			if !r.quiet {
				fmt.Fprintf(r.out, "%s %s %s\n", r.warn.Render("SKIPPED"), res.Input, r.muted.Render("(ignore marker)"))
			}
			continue
		}

		built++
		if r.quiet {
			continue
		}
		fmt.Fprintf(r.out, "%s %s -> %s%s\n", r.ok.Render("BUILT"), res.Input, strings.Join(r.outputs(res), ", "), r.details(res))
	}

	if !r.quiet && len(results) > 1 {
		summary := fmt.Sprintf("%d built, %d failed", built, failed)
		if skipped > 0 {
			summary += fmt.Sprintf(", %d skipped", skipped)
		}
		fmt.Fprintf(r.out, "\n%s\n", summary)
	}
	return failed
}

// notice writes an informational line unless quiet.
func (r *reporter) notice(msg string) {
	if !r.quiet {
		fmt.Fprintln(r.out, r.muted.Render(msg))
	}
}

func (r *reporter) outputs(res deckResult) []string {
	files := []string{res.Report.Output}
	if res.Report.Preview != "" {
		files = append(files, res.Report.Preview)
	}
	if res.PDF != "" {
		files = append(files, res.PDF)
	}
	return files
}

// details summarizes blocks and warnings; timings only when verbose.
func (r *reporter) details(res deckResult) string {
	var parts []string
	if result := res.Report.Result; result != nil {
		parts = append(parts, plural(len(result.Blocks), "block"))
		if n := len(result.Warnings); n > 0 {
			parts = append(parts, plural(n, "warning"))
		}
	}
	if r.verbose {
		parts = append(parts, res.Duration.Round(time.Millisecond).String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + r.muted.Render("("+strings.Join(parts, ", ")+")")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
