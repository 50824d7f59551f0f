package main

import (
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-md2slides/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath   string // MD2SLIDES_CONFIG: config file name or path
	BuildDir     string // MD2SLIDES_BUILD_DIR: cache directory
	Timeout      string // MD2SLIDES_TIMEOUT: per-deck build deadline
	TokenPrefix  string // MD2SLIDES_TOKEN_PREFIX: outcome token prefix
	Template     string // MD2SLIDES_TEMPLATE: slides template
	Assets       string // MD2SLIDES_ASSETS: asset override directory
	OutputPrefix string // MD2SLIDES_OUTPUT_PREFIX: output file prefix
	RevealJSPath string // MD2SLIDES_REVEAL_JS_PATH: reveal.js location
	Ignore       string // MD2SLIDES_IGNORE: input glob to skip
	MockOpen     string // MD2SLIDES_PYTHON_MOCK_OPEN: "0"/"false" keeps the real open
}

// knownEnvVars lists valid MD2SLIDES_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MD2SLIDES_CONFIG":           true,
	"MD2SLIDES_BUILD_DIR":        true,
	"MD2SLIDES_TIMEOUT":          true,
	"MD2SLIDES_TOKEN_PREFIX":     true,
	"MD2SLIDES_TEMPLATE":         true,
	"MD2SLIDES_ASSETS":           true,
	"MD2SLIDES_OUTPUT_PREFIX":    true,
	"MD2SLIDES_REVEAL_JS_PATH":   true,
	"MD2SLIDES_IGNORE":           true,
	"MD2SLIDES_PYTHON_MOCK_OPEN": true,
	"MD2SLIDES_CONTAINER":        true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	return &envConfig{
		ConfigPath:   getenv("MD2SLIDES_CONFIG"),
		BuildDir:     getenv("MD2SLIDES_BUILD_DIR"),
		Timeout:      getenv("MD2SLIDES_TIMEOUT"),
		TokenPrefix:  getenv("MD2SLIDES_TOKEN_PREFIX"),
		Template:     getenv("MD2SLIDES_TEMPLATE"),
		Assets:       getenv("MD2SLIDES_ASSETS"),
		OutputPrefix: getenv("MD2SLIDES_OUTPUT_PREFIX"),
		RevealJSPath: getenv("MD2SLIDES_REVEAL_JS_PATH"),
		Ignore:       getenv("MD2SLIDES_IGNORE"),
		MockOpen:     getenv("MD2SLIDES_PYTHON_MOCK_OPEN"),
	}
}

// warnUnknownEnvVars logs warnings for unrecognized MD2SLIDES_* variables.
func warnUnknownEnvVars(environ []string, logger *zap.Logger) {
	for _, env := range environ {
		if strings.HasPrefix(env, "MD2SLIDES_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				logger.Warn("unknown environment variable (typo?)", zap.String("name", name))
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables replace config file values; CLI flags are applied later
// via mergeFlags, giving: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIf(&cfg.Build.Dir, env.BuildDir)
	setIf(&cfg.Build.Timeout, env.Timeout)
	setIf(&cfg.Build.TokenPrefix, env.TokenPrefix)
	setIf(&cfg.Deck.Template, env.Template)
	setIf(&cfg.Deck.Assets, env.Assets)
	setIf(&cfg.Deck.OutputPrefix, env.OutputPrefix)
	setIf(&cfg.Deck.RevealJSPath, env.RevealJSPath)
	setIf(&cfg.Deck.Ignore, env.Ignore)

	switch strings.ToLower(env.MockOpen) {
	case "0", "false", "no":
		off := false
		cfg.Python.MockOpen = &off
	case "1", "true", "yes":
		on := true
		cfg.Python.MockOpen = &on
	}
}

// mergeFlags applies explicitly set CLI flags to config (CLI wins).
func mergeFlags(f *buildFlags, cfg *config.Config) {
	setIf(&cfg.Build.Dir, f.buildDir)
	setIf(&cfg.Build.Timeout, f.timeout)
	setIf(&cfg.Build.TokenPrefix, f.tokenPrefix)
	setIf(&cfg.Deck.Template, f.deck.template)
	setIf(&cfg.Deck.Assets, f.deck.assets)
	setIf(&cfg.Deck.OutputPrefix, f.deck.outputPrefix)
	setIf(&cfg.Deck.RevealJSPath, f.deck.revealJS)
	setIf(&cfg.Deck.Ignore, f.deck.ignore)
	setIf(&cfg.Deck.BeginSlide, f.deck.beginSlide)
	setIf(&cfg.Deck.EndSlide, f.deck.endSlide)

	if f.deck.noIndex {
		cfg.Deck.NoIndex = true
	}
	if f.deck.preview {
		cfg.Deck.Preview = true
	}
	if f.pdf {
		cfg.Export.PDF = true
	}
}

func setIf(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// resolveConfig loads the config file named by the flag or MD2SLIDES_CONFIG,
// then layers environment variables and flags on top and validates.
func resolveConfig(f *buildFlags, env *Environment, logger *zap.Logger) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Environ(), logger)

	name := f.common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		logger.Debug("config loaded", zap.String("config", name))
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
