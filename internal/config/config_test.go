package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 30, cfg.Sandbox.TimeoutSeconds)
	assert.Equal(t, "json", cfg.Runner.HistoryStore)
}

func TestLoadParsesYAMLAndFillsGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corvid.yaml")
	writeFile(t, path, `
provider:
  name: openai
  model: gpt-4o
logger:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, "gpt-4o", cfg.Provider.Model)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "simple", cfg.Logger.Format, "unset fields still get defaults")
	assert.Equal(t, 4096, cfg.Provider.MaxTokens)
}

func TestLoadRejectsInvalidProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corvid.yaml")
	writeFile(t, path, "provider:\n  name: notaprovider\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveAPIKeyPrefersExplicitValue(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	key := ResolveAPIKey(ProviderConfig{Name: "anthropic", APIKey: "explicit-key"})
	assert.Equal(t, "explicit-key", key)
}

func TestResolveAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	key := ResolveAPIKey(ProviderConfig{Name: "openai"})
	assert.Equal(t, "env-key", key)
}

func TestLoadDotEnvMissingFileIsNotAnError(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
