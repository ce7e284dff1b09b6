package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used for the machine-wide defaults file.
const appName = "ghsync"

// roadmapDirName is the managed subtree rooted at the repository, per
// spec.md §6.
const roadmapDirName = ".roadmap"

// configFileName is the per-repo config file, nested under the roadmap
// subtree.
const configFileName = "config.yaml"

// storeFileName is the embedded store's default filename.
const storeFileName = "roadmap.db"

// defaultsFileName is the optional machine-wide override file, decoded
// with BurntSushi/toml (see Defaults in config.go).
const defaultsFileName = "defaults.toml"

// lockFileName guards re-initialization, per spec.md §6's "Persisted
// state layout" clause.
const lockFileName = ".roadmap_init.lock"

// RoadmapDir returns the managed subtree path for a repository root.
func RoadmapDir(repoRoot string) string {
	return filepath.Join(repoRoot, roadmapDirName)
}

// ConfigPath returns the per-repo config file path.
func ConfigPath(repoRoot string) string {
	return filepath.Join(RoadmapDir(repoRoot), configFileName)
}

// LockFilePath returns the init-guard lockfile path for cwd.
func LockFilePath(cwd string) string {
	return filepath.Join(cwd, lockFileName)
}

// DefaultStorePath returns the store's default path, ~/.roadmap/roadmap.db
// per spec.md §6 — independent of any particular repository, since one
// store tracks sync state across every repo a user syncs.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, roadmapDirName, storeFileName)
}

// DefaultConfigDir returns the platform-specific directory for the
// optional machine-wide defaults file. On Linux, respects
// XDG_CONFIG_HOME (defaults to ~/.config/ghsync); on macOS, uses
// ~/Library/Application Support/ghsync; other platforms fall back to
// ~/.config/ghsync.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultsFilePath returns the optional machine-wide defaults.toml path.
func DefaultsFilePath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, defaultsFileName)
}
