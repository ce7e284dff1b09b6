package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config
// directories.
const configDirPermissions = 0o755

// configTemplate is the config file content written by `init`. Optional
// settings that have a default are present as commented-out defaults
// (log_file and user_agent, which have none, are not listed) — the write
// is one-shot; subsequent edits are the user's own.
const configTemplate = `# ghsync configuration
sync_backend: github

github:
  owner: %q
  repo: %q
  # token_env: GITHUB_TOKEN

user:
  name: %q
  email: %q

# roadmap:
#   dir: .roadmap
#   rebuild_threshold: 0.5

# dedup:
#   title_similarity_threshold: 0.90
#   content_similarity_threshold: 0.85
#   auto_resolve_threshold: 0.95
#   enable_fuzzy_matching: true
#   enable_content_cross_match: false

# logging:
#   log_level: info
#   log_format: auto

# network:
#   connect_timeout: 10s
#   data_timeout: 60s
`

// CreateConfig writes a new config.yaml at path from the template,
// filled in with owner/repo/user identity. The write is atomic (temp
// file + rename) and parent directories are created as needed. Used by
// `init` the first time a repository is set up.
func CreateConfig(path, owner, repo, userName, userEmail string) error {
	content := fmt.Sprintf(configTemplate, owner, repo, userName, userEmail)

	return atomicWriteFile(path, []byte(content))
}

// atomicWriteFile writes data to a temporary file in the same directory
// as path, then renames it to the target path, so a crash mid-write
// cannot corrupt an existing config file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
