package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2slides [command] [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Run code blocks and build reveal.js decks (default)")
	fmt.Fprintln(w, "  doctor     Check compilers, interpreters and browser")
	fmt.Fprintln(w, "  clean      Remove cached build artifacts")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'md2slides help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: md2slides [build] <input.md>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run every annotated code block, check its wants expression,")
	fmt.Fprintln(w, "and write one reveal.js deck per markdown file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Deck:")
	fmt.Fprintln(w, "  -t, --template <s>        Slides template name or file path")
	fmt.Fprintln(w, "      --assets <dir>        Directory overriding embedded templates and styles")
	fmt.Fprintln(w, "  -o, --output-prefix <s>   Prefix prepended to every output file")
	fmt.Fprintln(w, "  -r, --reveal-js-path <s>  reveal.js directory or URL (default: clone, else CDN)")
	fmt.Fprintln(w, "  -i, --ignore <glob>       Skip matching input files")
	fmt.Fprintln(w, "  -b, --begin-slide <path>  Markdown prepended to every deck")
	fmt.Fprintln(w, "  -e, --end-slide <path>    Markdown appended to every deck")
	fmt.Fprintln(w, "  -n, --no-index            Do not write the contents index")
	fmt.Fprintln(w, "      --preview             Also write a static preview page")
	fmt.Fprintln(w, "      --pdf                 Export every deck to PDF (needs Chrome)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build:")
	fmt.Fprintln(w, "      --build-dir <dir>     Cache directory (default: build)")
	fmt.Fprintln(w, "      --timeout <d>         Per-deck deadline, e.g. 30s (default: none)")
	fmt.Fprintln(w, "      --token-prefix <s>    Outcome token prefix (default: rayjs)")
	fmt.Fprintln(w, "      --watch               Rebuild decks when their inputs change")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  CXX, CC, PYTHON, GIT      Tool overrides")
	fmt.Fprintln(w, "  MD2SLIDES_*               Config overrides (see README)")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: md2slides doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Report the compilers, interpreters, git and browser builds would use.")
	case "clean":
		fmt.Fprintln(env.Stdout, "Usage: md2slides clean [--build-dir <dir>] [-c <config>]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Remove cached sources and artifacts. A cloned reveal.js is kept.")
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: md2slides config [build flags]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the configuration a build with the same flags would use.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: md2slides version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: md2slides help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
