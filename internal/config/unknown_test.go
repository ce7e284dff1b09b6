package config

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_UnknownKey_TopLevel(t *testing.T) {
	path := writeTestConfig(t, "unknown_section:\n  foo: bar\n")
	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_UnknownKey_TypoInGitHubSection(t *testing.T) {
	path := writeTestConfig(t, "github:\n  ownerr: octocat\n  repo: hello-world\n")
	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.Contains(t, err.Error(), "did you mean")
	assert.Contains(t, err.Error(), "owner")
}

func TestLoad_UnknownKey_NoSuggestion(t *testing.T) {
	path := writeTestConfig(t, "github:\n  completely_unrelated_key: true\n  owner: o\n  repo: r\n")
	_, err := Load(path, testLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestCheckUnknownKeys_ValidDocumentPasses(t *testing.T) {
	raw := map[string]any{
		"sync_backend": "github",
		"github":       map[string]any{"owner": "o", "repo": "r"},
		"user":         map[string]any{"name": "n", "email": "e"},
	}
	assert.NoError(t, checkUnknownKeys(raw))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"ownerr", "owner", 1},
		{"completely_different", "xyz", 19},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.expected, levenshtein(tt.a, tt.b))
		})
	}
}

func TestClosestMatch_Found(t *testing.T) {
	known := []string{"owner", "repo", "token_env"}
	assert.Equal(t, "owner", closestMatch("ownerr", known))
	assert.Equal(t, "repo", closestMatch("repoo", known))
}

func TestClosestMatch_NotFound(t *testing.T) {
	known := []string{"owner", "repo"}
	assert.Equal(t, "", closestMatch("completely_unrelated", known))
}

func TestKnownSectionsList_Sorted(t *testing.T) {
	assert.True(t, sort.StringsAreSorted(knownSectionsList), "knownSectionsList must be sorted")
}

func TestKnownSubKeysList_Sorted(t *testing.T) {
	for section, keys := range knownSubKeysList {
		assert.True(t, sort.StringsAreSorted(keys), "knownSubKeysList[%q] must be sorted", section)
	}
}
