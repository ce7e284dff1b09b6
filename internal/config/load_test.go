package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a debug-level logger that writes to stderr, ensuring
// all config debug output appears in test output for CI visibility.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	yamlContent := `
sync_backend: github

github:
  owner: octocat
  repo: hello-world
  token_env: MY_TOKEN

user:
  name: Jane Doe
  email: jane@example.com

roadmap:
  dir: roadmap
  rebuild_threshold: 25

dedup:
  title_similarity_threshold: 0.9
  content_similarity_threshold: 0.7
  auto_resolve_threshold: 0.99
  enable_fuzzy_matching: false
  enable_content_cross_match: true

logging:
  log_level: debug
  log_format: json

network:
  connect_timeout: 5s
  data_timeout: 30s
`
	path := writeTestConfig(t, yamlContent)

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.SyncBackend)
	assert.Equal(t, "octocat", cfg.GitHub.Owner)
	assert.Equal(t, "hello-world", cfg.GitHub.Repo)
	assert.Equal(t, "MY_TOKEN", cfg.GitHub.TokenEnv)
	assert.Equal(t, "Jane Doe", cfg.User.Name)
	assert.Equal(t, "roadmap", cfg.Roadmap.Dir)
	assert.InDelta(t, 25.0, cfg.Roadmap.RebuildThreshold, 0)
	assert.InDelta(t, 0.9, cfg.Dedup.TitleSimilarityThreshold, 0)
	assert.False(t, cfg.Dedup.EnableFuzzyMatching)
	assert.True(t, cfg.Dedup.EnableContentCrossMatch)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "json", cfg.Logging.LogFormat)
	assert.Equal(t, "5s", cfg.Network.ConnectTimeout)
}

func TestLoad_MinimalConfig_FillsDefaults(t *testing.T) {
	path := writeTestConfig(t, "github:\n  owner: octocat\n  repo: hello-world\n")

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)

	assert.Equal(t, "github", cfg.SyncBackend) // default
	assert.Equal(t, "GITHUB_TOKEN", cfg.GitHub.TokenEnv) // default
	assert.Equal(t, ".roadmap", cfg.Roadmap.Dir) // default
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTestConfig(t, "github: [this is not a map\n")
	_, err := Load(path, testLogger(t))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), testLogger(t))
	assert.Error(t, err)
}

func TestLoad_FailsValidation_MissingOwnerRepo(t *testing.T) {
	path := writeTestConfig(t, "sync_backend: github\n")
	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
}

func TestLoadOrDefault_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "github", cfg.SyncBackend)
}

func TestLoadOrDefault_ExistingFileIsLoaded(t *testing.T) {
	path := writeTestConfig(t, "github:\n  owner: o\n  repo: r\n")

	cfg, err := LoadOrDefault(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "o", cfg.GitHub.Owner)
}

func TestResolveConfigPath_Priority(t *testing.T) {
	logger := testLogger(t)

	// Default: repo-relative.
	got := ResolveConfigPath("/repo", EnvOverrides{}, "", logger)
	assert.Equal(t, ConfigPath("/repo"), got)

	// Env overrides default.
	got = ResolveConfigPath("/repo", EnvOverrides{ConfigPath: "/env/config.yaml"}, "", logger)
	assert.Equal(t, "/env/config.yaml", got)

	// CLI overrides env.
	got = ResolveConfigPath("/repo", EnvOverrides{ConfigPath: "/env/config.yaml"}, "/cli/config.yaml", logger)
	assert.Equal(t, "/cli/config.yaml", got)
}

func TestApplyMachineDefaults_NoFilePresent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	require.NoError(t, applyMachineDefaults(cfg, testLogger(t)))
	assert.Equal(t, "GITHUB_TOKEN", cfg.GitHub.TokenEnv)
}

func TestApplyMachineDefaults_OverlaysNonZeroFields(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)

	defaultsPath := filepath.Join(configDir, "ghsync", "defaults.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(defaultsPath), 0o755))
	require.NoError(t, os.WriteFile(defaultsPath, []byte(`
[github]
token_env = "WORK_GITHUB_TOKEN"

[logging]
log_level = "warn"
`), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, applyMachineDefaults(cfg, testLogger(t)))

	assert.Equal(t, "WORK_GITHUB_TOKEN", cfg.GitHub.TokenEnv)
	assert.Equal(t, "warn", cfg.Logging.LogLevel)
	assert.Equal(t, "auto", cfg.Logging.LogFormat) // untouched field keeps its default
}
