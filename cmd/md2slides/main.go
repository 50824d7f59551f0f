package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2slides/internal/goexec"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Go code blocks run in a child copy of this binary.
	if len(os.Args) > 1 && os.Args[1] == goexec.ChildCommand {
		os.Exit(goexec.Main(os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// commands lists the recognized subcommands. Anything else is treated as
// an input of the default build command.
var commands = map[string]bool{
	"build":   true,
	"doctor":  true,
	"clean":   true,
	"config":  true,
	"version": true,
	"help":    true,
}

func isCommand(arg string) bool {
	return commands[arg]
}

// runMain dispatches args (including the program name) and returns the
// process exit code.
func runMain(args []string, env *Environment) int {
	ctx, stop := notifyContext(context.Background())
	defer stop()

	if len(args) > 0 {
		args = args[1:]
	}
	cmd, rest := "build", args
	if len(args) > 0 && isCommand(args[0]) {
		cmd, rest = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "version":
		fmt.Fprintf(env.Stdout, "go-md2slides %s\n", Version)
		return ExitSuccess
	case "help":
		return runHelp(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "clean":
		err = runCleanCmd(rest, env)
	case "config":
		err = runConfigCmd(rest, env)
	default:
		err = runBuildCmd(ctx, rest, env)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		printError(env.Stderr, err, hintContext{})
		return exitCodeFor(err)
	}
	return ExitSuccess
}
