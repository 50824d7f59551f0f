package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	md2slides "github.com/alnah/go-md2slides"
	"github.com/alnah/go-md2slides/internal/buildcache"
	"github.com/alnah/go-md2slides/internal/config"
	"github.com/alnah/go-md2slides/internal/goexec"
	"github.com/alnah/go-md2slides/internal/native"
	"github.com/alnah/go-md2slides/internal/pyexec"
	"github.com/alnah/go-md2slides/internal/toolchain"
)

// registryDeps is what a RegistryFactory may use to build handlers.
type registryDeps struct {
	cfg    *config.Config
	store  *buildcache.Store
	finder *toolchain.Finder
	logger *zap.Logger
}

// RegistryFactory builds the language registry for one build.
type RegistryFactory func(ctx context.Context, deps registryDeps) (*md2slides.Registry, error)

// newRegistry registers every handler whose toolchain is available.
// C++ is required; C and Python are registered when found, Go always.
func newRegistry(ctx context.Context, deps registryDeps) (*md2slides.Registry, error) {
	reg := md2slides.NewRegistry()
	tc := deps.cfg.Toolchain
	log := deps.logger

	cxx, err := deps.finder.Find(ctx, toolchain.CXX, tc.CXX)
	if err != nil {
		return nil, err
	}
	cpp, err := native.New(deps.store, cxx.Path, native.WithFlags(tc.CXXFlags...), native.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := reg.Register(string(md2slides.LanguageCpp), cpp); err != nil {
		return nil, err
	}
	logTool(log, cxx)

	cc, err := deps.finder.Find(ctx, toolchain.CC, tc.CC)
	switch {
	case err == nil:
		c, err := native.New(deps.store, cc.Path,
			native.WithLanguage(md2slides.LanguageC, ".c"),
			native.WithFlags(tc.CFlags...),
			native.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := reg.Register(string(md2slides.LanguageC), c); err != nil {
			return nil, err
		}
		logTool(log, cc)
	case errors.Is(err, toolchain.ErrNoCompiler):
		log.Info("C blocks disabled", zap.Error(err))
	default:
		return nil, err
	}

	py, err := deps.finder.Find(ctx, toolchain.Python, deps.cfg.Python.Interpreter)
	switch {
	case err == nil:
		h, err := pyexec.New(py.Path,
			pyexec.WithMockOpen(deps.cfg.Python.MockOpenEnabled()),
			pyexec.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := reg.Register(string(md2slides.LanguagePython), h); err != nil {
			return nil, err
		}
		logTool(log, py)
	case errors.Is(err, toolchain.ErrNoPython):
		log.Info("Python blocks disabled", zap.Error(err))
	default:
		return nil, err
	}

	if err := reg.Register(string(md2slides.LanguageGo), goexec.New(goexec.WithLogger(log))); err != nil {
		return nil, err
	}
	return reg, nil
}

func logTool(log *zap.Logger, t toolchain.Tool) {
	log.Debug("tool found",
		zap.String("kind", t.Kind),
		zap.String("path", t.Path),
		zap.String("version", t.Version),
		zap.String("source", string(t.Source)))
}

// languageNames lists the registered languages for hints.
func languageNames(reg *md2slides.Registry) []string {
	langs := reg.Languages()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = string(l)
	}
	return names
}
