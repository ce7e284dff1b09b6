package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCreateConfig_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".roadmap", "config.yaml")

	require.NoError(t, CreateConfig(path, "octocat", "hello-world", "Jane Doe", "jane@example.com"))

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "octocat", cfg.GitHub.Owner)
	assert.Equal(t, "hello-world", cfg.GitHub.Repo)
	assert.Equal(t, "Jane Doe", cfg.User.Name)
	assert.Equal(t, "jane@example.com", cfg.User.Email)
}

func TestCreateConfig_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	require.NoError(t, CreateConfig(path, "o", "r", "n", "e"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestCreateConfig_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, CreateConfig(path, "first", "repo", "n", "e"))
	require.NoError(t, CreateConfig(path, "second", "repo", "n", "e"))

	cfg, err := Load(path, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.GitHub.Owner)
}

func TestCreateConfig_ProducesValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, CreateConfig(path, "o", "r", "n", "e"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "github", doc["sync_backend"])
}
