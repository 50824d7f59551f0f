package main

import (
	"fmt"

	"github.com/alnah/go-md2slides/internal/buildcache"
	"github.com/alnah/go-md2slides/internal/yamlutil"
)

// runCleanCmd removes cached build artifacts from the configured build
// directory.
func runCleanCmd(args []string, env *Environment) error {
	flags, _, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, flags.common)
	defer func() { _ = logger.Sync() }()

	cfg, err := resolveConfig(flags, env, logger)
	if err != nil {
		return withHints(err, hintContext{configName: flags.common.config})
	}

	store, err := buildcache.New(cfg.Build.Dir)
	if err != nil {
		return err
	}
	removed, err := store.Clean()
	if err != nil {
		return err
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Removed %d cached file(s) from %s\n", removed, store.Dir())
	}
	return nil
}

// runConfigCmd prints the effective configuration after config file,
// environment and flags are merged.
func runConfigCmd(args []string, env *Environment) error {
	flags, _, err := parseBuildFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, flags.common)
	defer func() { _ = logger.Sync() }()

	cfg, err := resolveConfig(flags, env, logger)
	if err != nil {
		return withHints(err, hintContext{configName: flags.common.config})
	}
	data, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(data)
	return err
}
