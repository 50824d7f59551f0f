package main

// Notes:
// - Precedence is checked end to end: defaults < file < env < flags
// - Unknown MD2SLIDES_* variables are asserted through a zap observer

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alnah/go-md2slides/internal/config"
)

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Environment overrides
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	vars := map[string]string{
		"MD2SLIDES_BUILD_DIR":        "env-build",
		"MD2SLIDES_TIMEOUT":          "10s",
		"MD2SLIDES_OUTPUT_PREFIX":    "env/",
		"MD2SLIDES_PYTHON_MOCK_OPEN": "false",
	}
	cfg := config.DefaultConfig()
	cfg.Deck.OutputPrefix = "file/"
	cfg.Deck.Template = "file.html"

	applyEnvConfig(loadEnvConfig(func(k string) string { return vars[k] }), cfg)

	if cfg.Build.Dir != "env-build" || cfg.Build.Timeout != "10s" {
		t.Errorf("build = %+v, want env values", cfg.Build)
	}
	if cfg.Deck.OutputPrefix != "env/" {
		t.Errorf("OutputPrefix = %q, env should override file", cfg.Deck.OutputPrefix)
	}
	if cfg.Deck.Template != "file.html" {
		t.Errorf("Template = %q, unset env must keep file value", cfg.Deck.Template)
	}
	if cfg.Python.MockOpenEnabled() {
		t.Error("MD2SLIDES_PYTHON_MOCK_OPEN=false should disable open mocking")
	}
	if cfg.Build.TokenPrefix != config.DefaultTokenPrefix {
		t.Errorf("TokenPrefix = %q, want default", cfg.Build.TokenPrefix)
	}
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	warnUnknownEnvVars([]string{
		"MD2SLIDES_BUILD_DIR=x",
		"MD2SLIDES_BUIDL_DIR=y",
		"HOME=/root",
	}, zap.New(core))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d warnings, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["name"]; got != "MD2SLIDES_BUIDL_DIR" {
		t.Errorf("warned about %v, want MD2SLIDES_BUIDL_DIR", got)
	}
}

// ---------------------------------------------------------------------------
// TestResolveConfig - Full precedence chain
// ---------------------------------------------------------------------------

func TestResolveConfig_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"talks.yaml": "build:\n  dir: file-build\n  tokenPrefix: file\ndeck:\n  ignore: \"*.draft.md\"\n",
	})

	env, _, _ := testEnv(map[string]string{
		"MD2SLIDES_CONFIG":       filepath.Join(dir, "talks.yaml"),
		"MD2SLIDES_TOKEN_PREFIX": "env",
		"MD2SLIDES_BUILD_DIR":    "env-build",
	})
	flags := &buildFlags{buildDir: "flag-build", pdf: true}

	cfg, err := resolveConfig(flags, env, zap.NewNop())
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}

	if cfg.Build.Dir != "flag-build" {
		t.Errorf("Build.Dir = %q, flag should win", cfg.Build.Dir)
	}
	if cfg.Build.TokenPrefix != "env" {
		t.Errorf("TokenPrefix = %q, env should beat file", cfg.Build.TokenPrefix)
	}
	if cfg.Deck.Ignore != "*.draft.md" {
		t.Errorf("Ignore = %q, want file value", cfg.Deck.Ignore)
	}
	if !cfg.Export.PDF {
		t.Error("--pdf should enable export")
	}
}

func TestResolveConfig_InvalidMerged(t *testing.T) {
	t.Parallel()

	env, _, _ := testEnv(map[string]string{"MD2SLIDES_TOKEN_PREFIX": "has space"})
	if _, err := resolveConfig(&buildFlags{}, env, zap.NewNop()); err == nil {
		t.Error("expected validation error for token prefix with whitespace")
	}
}
