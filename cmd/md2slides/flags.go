package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// deckFlags holds deck assembly flags.
type deckFlags struct {
	template     string
	assets       string
	outputPrefix string
	revealJS     string
	ignore       string
	beginSlide   string
	endSlide     string
	noIndex      bool
	preview      bool
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common      commonFlags
	deck        deckFlags
	buildDir    string
	timeout     string
	tokenPrefix string
	pdf         bool
	watch       bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timings")
}

// addDeckFlags adds deck assembly flags to a FlagSet.
func addDeckFlags(fs *flag.FlagSet, f *deckFlags) {
	fs.StringVarP(&f.template, "template", "t", "", "slides template name or file path")
	fs.StringVar(&f.assets, "assets", "", "directory overriding embedded templates and styles")
	fs.StringVarP(&f.outputPrefix, "output-prefix", "o", "", "prefix prepended to every output file")
	fs.StringVarP(&f.revealJS, "reveal-js-path", "r", "", "reveal.js directory or URL")
	fs.StringVarP(&f.ignore, "ignore", "i", "", "glob of input files to skip")
	fs.StringVarP(&f.beginSlide, "begin-slide", "b", "", "markdown file prepended to every deck")
	fs.StringVarP(&f.endSlide, "end-slide", "e", "", "markdown file appended to every deck")
	fs.BoolVarP(&f.noIndex, "no-index", "n", false, "do not write the contents index")
	fs.BoolVar(&f.preview, "preview", false, "also write a static preview page")
}

// parseBuildFlags parses build command flags and returns positional args.
// Parse errors wrap ErrUsage; -h returns flag.ErrHelp after printing usage.
func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &buildFlags{}

	fs.StringVar(&f.buildDir, "build-dir", "", "cache directory for sources and artifacts")
	fs.StringVar(&f.timeout, "timeout", "", "per-deck build deadline (e.g., 30s, 2m)")
	fs.StringVar(&f.tokenPrefix, "token-prefix", "", "outcome token prefix")
	fs.BoolVar(&f.pdf, "pdf", false, "export every deck to PDF")
	fs.BoolVar(&f.watch, "watch", false, "rebuild decks when their inputs change")

	addCommonFlags(fs, &f.common)
	addDeckFlags(fs, &f.deck)

	fs.Usage = func() { printBuildUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if f.common.quiet && f.common.verbose {
		return nil, nil, fmt.Errorf("%w: --quiet and --verbose are mutually exclusive", ErrUsage)
	}

	return f, fs.Args(), nil
}
