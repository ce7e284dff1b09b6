package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghsync/ghsync/internal/parser"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "issue.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestParseFrontmatter_NoFrontmatterIsEmptyNotError(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "# Just a heading\n\nbody text\n")

	meta, err := parser.ParseFrontmatter(path)
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestParseFrontmatter_DecodesBlock(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "---\ntitle: Fix login\nstatus: open\n---\n\n# Fix login\n")

	meta, err := parser.ParseFrontmatter(path)
	require.NoError(t, err)
	assert.Equal(t, "Fix login", meta["title"])
	assert.Equal(t, "open", meta["status"])
}

func TestParseFrontmatter_MalformedYAMLReturnsParseError(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "---\ntitle: [unterminated\n---\n")

	_, err := parser.ParseFrontmatter(path)
	require.Error(t, err)

	var pe *parser.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, path, pe.Path)
}

// TestRepair_GitCommitsAndBranchesIdempotent covers spec.md §8's "YAML
// repair idempotent" law: repair(repair(x)) == repair(x).
func TestRepair_GitCommitsAndBranchesIdempotent(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `---
git_commits:
  - abc123
  - def456
git_branches:
  - name: main
  - feature/x
---
`)

	once, err := parser.ParseFrontmatter(path)
	require.NoError(t, err)

	commits, ok := once["git_commits"].([]any)
	require.True(t, ok)
	require.Len(t, commits, 2)

	first, ok := commits[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc123", first["hash"])

	branches, ok := once["git_branches"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"main", "feature/x"}, branches)

	twicePath := writeTemp(t, `---
git_commits:
  - hash: abc123
  - hash: def456
git_branches:
  - main
  - feature/x
---
`)

	twice, err := parser.ParseFrontmatter(twicePath)
	require.NoError(t, err)
	assert.Equal(t, once["git_commits"], twice["git_commits"])
	assert.Equal(t, once["git_branches"], twice["git_branches"])
}

func TestHash_StableAcrossReads(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "content that does not change")

	h1 := parser.Hash(path)
	h2 := parser.Hash(path)

	assert.NotEmpty(t, h1)
	assert.Equal(t, h1, h2)
}

func TestHash_MissingFileReturnsEmptyString(t *testing.T) {
	t.Parallel()

	assert.Empty(t, parser.Hash("/nonexistent/path/does/not/exist.md"))
}

func TestStat_ReportsSizeAndHash(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "0123456789")

	meta := parser.Stat(path)
	assert.Equal(t, int64(10), meta.Size)
	assert.NotEmpty(t, meta.Hash)
}
