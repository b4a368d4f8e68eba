package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg, err := Load(tmp)
	require.NoError(t, err)

	assert.Equal(t, "validate%(type)", cfg.ValidatorPattern)
	assert.Equal(t, "src/**/*.ts", cfg.SourceFiles)
	assert.Equal(t, "src/validators.ts", cfg.ValidatorFile)
	assert.False(t, cfg.UseJsExtensions)
	assert.Equal(t, tmp, cfg.RootDir)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, `
validatorPattern = "is%(type)"
sourceFiles = "lib/**/*.ts"
validatorFile = "lib/checks.ts"
useJsExtensions = true
`)

	cfg, err := Load(tmp)
	require.NoError(t, err)

	assert.Equal(t, "is%(type)", cfg.ValidatorPattern)
	assert.Equal(t, "lib/**/*.ts", cfg.SourceFiles)
	assert.Equal(t, "lib/checks.ts", cfg.ValidatorFile)
	assert.True(t, cfg.UseJsExtensions)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MalformedTOML(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, `validatorPattern = [broken`)

	_, err := Load(tmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, `validatorPatern = "is%(type)"`)

	_, err := Load(tmp)
	assert.Error(t, err, "misspelled keys should not be silently ignored")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	tmp := t.TempDir()
	writeConfig(t, tmp, `logLevel = "loud"`)

	_, err := Load(tmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logLevel")
}

func TestValidatorFilePath(t *testing.T) {
	cfg := Default()
	cfg.RootDir = "/proj"
	assert.Equal(t, filepath.Join("/proj", "src/validators.ts"), cfg.ValidatorFilePath())

	cfg.ValidatorFile = "/abs/out.ts"
	assert.Equal(t, "/abs/out.ts", cfg.ValidatorFilePath())
}
