// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-md2slides/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForCompilerNotFound returns hints for a missing C or C++ compiler.
// envVar is the override that was consulted (CXX or CC).
func ForCompilerNotFound(envVar string, probed []string) string {
	hints := []string{"set " + envVar + " to a compiler path"}
	if len(probed) > 0 {
		hints = append(hints, "or install one of: "+strings.Join(probed, ", "))
	}
	return formatHints(hints)
}

// ForPythonNotFound returns hints for a missing Python interpreter.
func ForPythonNotFound() string {
	return format("set PYTHON to a python3 interpreter, or run doctor to list detected tools")
}

// ForGitNotFound returns hints when reveal.js cannot be cloned.
func ForGitNotFound() string {
	return format("install git, set GIT, or pass --reveal-js-path (a directory or URL of reveal.js)")
}

// ForUnknownLanguage suggests the registered languages and how C blocks are tagged.
func ForUnknownLanguage(available []string) string {
	if len(available) == 0 {
		return ""
	}
	hint := "registered: " + strings.Join(available, ", ")
	for _, lang := range available {
		if lang == "c" {
			hint += " (tag C blocks as ansic)"
			break
		}
	}
	return format(hint)
}

// ForAssertion returns a hint for a wants expectation that did not hold.
func ForAssertion() string {
	return format(`fix the code or change the wants expression; use wants="run" to only observe`)
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("slow compilers or long-running snippets need a larger --timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-md2slides/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-md2slides") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
