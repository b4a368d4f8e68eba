// Package config loads generator settings from bagsakan.toml.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "bagsakan.toml"

// Config holds every recognized option. All fields have defaults so an empty
// or missing file yields a working zero-config setup.
type Config struct {
	// ValidatorPattern names validator calls; the %(type) placeholder
	// captures the target type name (e.g. validateUser → User).
	ValidatorPattern string `toml:"validatorPattern"`

	// SourceFiles is the glob selecting user TypeScript sources, relative
	// to RootDir.
	SourceFiles string `toml:"sourceFiles"`

	// ValidatorFile is the destination path for the generated file,
	// relative to RootDir.
	ValidatorFile string `toml:"validatorFile"`

	// UseJsExtensions appends .js to relative import specifiers in the
	// emitted file, for projects using ESM-style resolution.
	UseJsExtensions bool `toml:"useJsExtensions"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"logLevel"`

	// LogFormat is one of text, json.
	LogFormat string `toml:"logFormat"`

	// RootDir is the project directory the globs and the validator file
	// are resolved against. Not a file option; set by the caller.
	RootDir string `toml:"-"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		ValidatorPattern: "validate%(type)",
		SourceFiles:      "src/**/*.ts",
		ValidatorFile:    "src/validators.ts",
		UseJsExtensions:  false,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load reads bagsakan.toml from dir. A missing file is not an error: the
// defaults are returned. A malformed file or an unknown key is a ConfigError
// so typos surface instead of being silently ignored.
func Load(dir string) (Config, error) {
	cfg := Default()
	cfg.RootDir = dir

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: malformed %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ValidatorPattern == "" {
		return fmt.Errorf("validatorPattern must not be empty")
	}
	if c.SourceFiles == "" {
		return fmt.Errorf("sourceFiles must not be empty")
	}
	if c.ValidatorFile == "" {
		return fmt.Errorf("validatorFile must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be one of text, json; got %q", c.LogFormat)
	}
	return nil
}

// ValidatorFilePath returns the absolute destination path.
func (c Config) ValidatorFilePath() string {
	if filepath.IsAbs(c.ValidatorFile) {
		return c.ValidatorFile
	}
	return filepath.Join(c.RootDir, c.ValidatorFile)
}
