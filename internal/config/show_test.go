package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective_ContainsEffectiveValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GitHub.Owner = "octocat"
	cfg.GitHub.Repo = "hello-world"
	cfg.User.Name = "Jane Doe"

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	out := buf.String()
	assert.Contains(t, out, "sync_backend")
	assert.Contains(t, out, "octocat")
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "title_similarity_threshold")
	assert.Contains(t, out, "log_level")
	assert.Contains(t, out, "connect_timeout")
}

func TestRenderEffective_OmitsEmptyOptionalFields(t *testing.T) {
	cfg := DefaultConfig()

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	out := buf.String()
	assert.NotContains(t, out, "log_file")
	assert.NotContains(t, out, "user_agent")
}

func TestRenderEffective_IncludesOptionalFieldsWhenSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogFile = "/var/log/ghsync.log"
	cfg.Network.UserAgent = "ghsync/1.0"

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, &buf))

	out := buf.String()
	assert.Contains(t, out, "/var/log/ghsync.log")
	assert.Contains(t, out, "ghsync/1.0")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func TestRenderEffective_PropagatesWriteError(t *testing.T) {
	err := RenderEffective(DefaultConfig(), failingWriter{})
	assert.ErrorIs(t, err, assert.AnError)
}
