package main

import (
	"io"
	"os"

	"github.com/alnah/go-md2slides/internal/toolchain"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	Finder  *toolchain.Finder

	// NewRegistry wires the language handlers for a build.
	NewRegistry RegistryFactory
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		Environ:     os.Environ,
		Finder:      toolchain.NewFinder(),
		NewRegistry: newRegistry,
	}
}
