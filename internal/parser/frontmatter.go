// Package parser implements the File Parser: reading a markdown file
// with a YAML-ish frontmatter block into a typed metadata map, hashing
// file contents, and repairing two known historical shape drifts in the
// frontmatter.
//
// Grounded on
// original_source/roadmap/adapters/persistence/file_parser.go.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterSentinel = "---"

// ParseError names the offending path when a frontmatter block is
// present but fails to parse.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parser: schema error parsing frontmatter in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Metadata is the map produced by decoding a frontmatter block. Files
// without frontmatter are treated as having an empty Metadata (not an
// error), matching spec.md §4.1.
type Metadata map[string]any

// ParseFrontmatter reads path, extracts a YAML frontmatter block bounded
// by "---" sentinels at the head, and decodes it into a Metadata map. A
// file with no frontmatter returns an empty, non-nil Metadata. A
// frontmatter block present but malformed returns a *ParseError naming
// path.
func ParseFrontmatter(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parser: reading %s: %w", path, err)
	}

	return parseFrontmatterBytes(path, raw)
}

func parseFrontmatterBytes(path string, raw []byte) (Metadata, error) {
	content := string(raw)

	if !strings.HasPrefix(content, frontmatterSentinel+"\n") {
		return Metadata{}, nil
	}

	end := strings.Index(content[len(frontmatterSentinel)+1:], "\n"+frontmatterSentinel+"\n")
	if end < 0 {
		// No closing sentinel found — matches the Python fallback of
		// parsing the entire file content as YAML.
		return decodeYAML(path, content)
	}

	block := content[len(frontmatterSentinel)+1 : len(frontmatterSentinel)+1+end]

	meta, err := decodeYAML(path, block)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return repair(meta), nil
}

func decodeYAML(path, block string) (Metadata, error) {
	var m map[string]any

	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return nil, err
	}

	if m == nil {
		return Metadata{}, nil
	}

	return Metadata(m), nil
}

// Hash returns the hex-encoded SHA-256 digest of path's raw bytes. A
// missing or unreadable file returns the empty string, the sentinel
// spec.md §4.1 defines for "treat as changed." crypto/sha256 is used
// directly rather than through a third-party wrapper: no library in the
// corpus offers anything beyond what the standard hasher already
// provides for a flat file digest (see DESIGN.md).
func Hash(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(raw)

	return hex.EncodeToString(sum[:])
}

// FileMetadata is the {hash, size, mtime} triple used by sync state
// bookkeeping.
type FileMetadata struct {
	Hash         string
	Size         int64
	LastModified int64 // unix seconds
}

// Stat returns path's FileMetadata, or the zero value with an empty Hash
// if the file cannot be read.
func Stat(path string) FileMetadata {
	info, err := os.Stat(path)
	if err != nil {
		return FileMetadata{}
	}

	return FileMetadata{
		Hash:         Hash(path),
		Size:         info.Size(),
		LastModified: info.ModTime().Unix(),
	}
}
