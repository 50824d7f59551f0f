// Package config loads deck build settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2slides/internal/fileutil"
	"github.com/alnah/go-md2slides/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength        = 4096
	MaxTokenPrefixLength = 32
	MaxFlagLength        = 256
	MaxFlagCount         = 64
	MaxIgnoreLength      = 512
)

// Defaults.
const (
	DefaultBuildDir     = "build"
	DefaultRevealJSPath = "build/reveal_js"
	DefaultTokenPrefix  = "rayjs"
	DefaultIndexName    = "index.html"
)

// userConfigDirName is the directory under os.UserConfigDir searched by name.
const userConfigDirName = "go-md2slides"

// Config holds all configuration for deck generation.
type Config struct {
	Build     BuildConfig     `yaml:"build"`
	Deck      DeckConfig      `yaml:"deck"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Python    PythonConfig    `yaml:"python"`
	Export    ExportConfig    `yaml:"export"`
}

// BuildConfig controls code block execution.
type BuildConfig struct {
	Dir         string `yaml:"dir"`         // cache directory for sources and artifacts
	Timeout     string `yaml:"timeout"`     // Go duration, empty = no deadline
	TokenPrefix string `yaml:"tokenPrefix"` // outcome token prefix
}

// DeckConfig controls HTML deck assembly.
type DeckConfig struct {
	Template     string `yaml:"template"`     // template name or file path, empty = embedded
	Assets       string `yaml:"assets"`       // directory overriding embedded templates and styles
	OutputPrefix string `yaml:"outputPrefix"` // prepended to every output file name
	RevealJSPath string `yaml:"revealJsPath"` // local dir or URL; empty = clone with CDN fallback
	Ignore       string `yaml:"ignore"`       // glob of input files to skip
	NoIndex      bool   `yaml:"noIndex"`      // do not write the contents index
	BeginSlide   string `yaml:"beginSlide"`   // markdown file prepended to every deck
	EndSlide     string `yaml:"endSlide"`     // markdown file appended to every deck
	Preview      bool   `yaml:"preview"`      // also write a static preview page
}

// ToolchainConfig overrides compiler discovery.
type ToolchainConfig struct {
	CXX      string   `yaml:"cxx"`
	CC       string   `yaml:"cc"`
	CXXFlags []string `yaml:"cxxFlags"`
	CFlags   []string `yaml:"cFlags"`
	Git      string   `yaml:"git"`
}

// PythonConfig controls the Python handler.
type PythonConfig struct {
	Interpreter string `yaml:"interpreter"`
	MockOpen    *bool  `yaml:"mockOpen"` // nil = true
}

// ExportConfig controls PDF export.
type ExportConfig struct {
	PDF     bool   `yaml:"pdf"`
	Timeout string `yaml:"timeout"` // Go duration, empty = export default
}

// MockOpenEnabled reports whether Python's open is replaced (default true).
func (p PythonConfig) MockOpenEnabled() bool {
	return p.MockOpen == nil || *p.MockOpen
}

// BuildTimeout parses Build.Timeout; zero means no deadline.
func (c *Config) BuildTimeout() (time.Duration, error) {
	return parseDuration("build.timeout", c.Build.Timeout)
}

// ExportTimeout parses Export.Timeout; zero means the exporter default.
func (c *Config) ExportTimeout() (time.Duration, error) {
	return parseDuration("export.timeout", c.Export.Timeout)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: must be positive, got %s", ErrInvalidValue, field, value)
	}
	return d, nil
}

// Validate checks field lengths and value syntax.
// Called automatically by LoadConfig, but available for callers that
// build a Config from flags and environment.
func (c *Config) Validate() error {
	paths := map[string]string{
		"build.dir":          c.Build.Dir,
		"deck.template":      c.Deck.Template,
		"deck.assets":        c.Deck.Assets,
		"deck.outputPrefix":  c.Deck.OutputPrefix,
		"deck.revealJsPath":  c.Deck.RevealJSPath,
		"deck.beginSlide":    c.Deck.BeginSlide,
		"deck.endSlide":      c.Deck.EndSlide,
		"toolchain.cxx":      c.Toolchain.CXX,
		"toolchain.cc":       c.Toolchain.CC,
		"toolchain.git":      c.Toolchain.Git,
		"python.interpreter": c.Python.Interpreter,
	}
	for field, value := range paths {
		if err := validateFieldLength(field, value, MaxPathLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("deck.ignore", c.Deck.Ignore, MaxIgnoreLength); err != nil {
		return err
	}
	if c.Deck.Ignore != "" {
		if _, err := filepath.Match(c.Deck.Ignore, ""); err != nil {
			return fmt.Errorf("%w: deck.ignore: %v", ErrInvalidValue, err)
		}
	}

	if err := validateFieldLength("build.tokenPrefix", c.Build.TokenPrefix, MaxTokenPrefixLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Build.TokenPrefix, " \t\r\n\"") {
		return fmt.Errorf("%w: build.tokenPrefix: %q must not contain whitespace or quotes", ErrInvalidValue, c.Build.TokenPrefix)
	}

	if err := validateFlags("toolchain.cxxFlags", c.Toolchain.CXXFlags); err != nil {
		return err
	}
	if err := validateFlags("toolchain.cFlags", c.Toolchain.CFlags); err != nil {
		return err
	}

	if _, err := c.BuildTimeout(); err != nil {
		return err
	}
	if _, err := c.ExportTimeout(); err != nil {
		return err
	}
	return nil
}

func validateFlags(field string, flags []string) error {
	if len(flags) > MaxFlagCount {
		return fmt.Errorf("%w: %s (%d entries, max %d)", ErrFieldTooLong, field, len(flags), MaxFlagCount)
	}
	for i, f := range flags {
		if err := validateFieldLength(fmt.Sprintf("%s[%d]", field, i), f, MaxFlagLength); err != nil {
			return err
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Dir:         DefaultBuildDir,
			TokenPrefix: DefaultTokenPrefix,
		},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the locations tried for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, userConfigDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory, then ~/.config/go-md2slides/, .yaml before .yml.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
