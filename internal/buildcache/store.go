// Package buildcache stores generated sources and compiled artifacts under
// content-derived names so unchanged code blocks are never rebuilt.
//
// Artifacts are published by rename after a successful build, so a reader
// either sees a complete artifact or none. Concurrent builds of the same
// name within one process are collapsed into a single build.
package buildcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-md2slides/internal/fileutil"
)

// CachedLog is the build log reported for artifacts that already existed.
const CachedLog = "cached"

// ErrArtifactMissing is returned when a build reports success but leaves no file.
var ErrArtifactMissing = errors.New("build succeeded but produced no artifact")

// BuildOutput is what a build step reports.
type BuildOutput struct {
	Log    string
	Status int
}

// Succeeded reports whether the build exited with status 0.
func (o BuildOutput) Succeeded() bool {
	return o.Status == 0
}

// BuildFunc produces an artifact at out. A non-zero status is a failed
// build, not an error; errors mean the build could not be attempted.
type BuildFunc func(ctx context.Context, out string) (BuildOutput, error)

// Entry is the result of Ensure.
type Entry struct {
	Path   string // published artifact; empty when the build failed
	Cached bool   // artifact existed before this call
	Output BuildOutput
}

// Store is a directory of cached sources and artifacts.
type Store struct {
	dir   string
	group singleflight.Group
}

// New creates the cache directory if needed. The directory is made
// absolute so artifact paths can be executed directly.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("build directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving build directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of name inside the cache.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// WriteSource writes src as name unless it already exists and returns its path.
// Existing sources are never rewritten: the name is derived from the content.
func (s *Store) WriteSource(name string, src []byte) (string, error) {
	path := s.Path(name)
	if _, err := fileutil.WriteFileIfAbsent(path, src, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Ensure returns the artifact called name, building it with build if absent.
// Successful builds are renamed into place; failed builds leave nothing behind.
func (s *Store) Ensure(ctx context.Context, name string, build BuildFunc) (Entry, error) {
	path := s.Path(name)
	if fileutil.FileExists(path) {
		return Entry{Path: path, Cached: true, Output: BuildOutput{Log: CachedLog}}, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		if fileutil.FileExists(path) {
			return Entry{Path: path, Cached: true, Output: BuildOutput{Log: CachedLog}}, nil
		}
		return s.build(ctx, path, build)
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (s *Store) build(ctx context.Context, path string, build BuildFunc) (Entry, error) {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return Entry{}, fmt.Errorf("reserving build output: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	// Compilers refuse to overwrite some file types; let them create it.
	_ = os.Remove(tmpPath)
	defer func() { _ = os.Remove(tmpPath) }()

	out, err := build(ctx, tmpPath)
	if err != nil {
		return Entry{}, err
	}
	if !out.Succeeded() {
		return Entry{Output: out}, nil
	}
	if !fileutil.FileExists(tmpPath) {
		return Entry{}, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return Entry{}, fmt.Errorf("publishing artifact: %w", err)
	}
	return Entry{Path: path, Output: out}, nil
}

// Clean removes every regular file in the cache directory and returns how
// many were removed. Subdirectories such as a cloned reveal.js are kept.
func (s *Store) Clean() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading build directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
