// Package config implements the layered configuration loading, validation,
// and platform-specific path resolution for ghsync.
package config

import "github.com/ghsync/ghsync/internal/dedup"

// Config is the top-level configuration structure, decoded from
// <repo>/.roadmap/config.yaml per spec.md §6. The section is kept
// YAML-shaped (github/user keys, as the external-interface text names
// it) rather than switched to the teacher's native TOML, so this one
// file is decoded with gopkg.in/yaml.v3 — see DESIGN.md for the recorded
// substitution.
type Config struct {
	SyncBackend string       `yaml:"sync_backend"`
	GitHub      GitHubConfig `yaml:"github"`
	User        UserConfig   `yaml:"user"`
	Roadmap     RoadmapConfig `yaml:"roadmap"`
	Dedup       DedupConfig  `yaml:"dedup"`
	Logging     LoggingConfig `yaml:"logging"`
	Network     NetworkConfig `yaml:"network"`
}

// GitHubConfig names the remote repository and how to authenticate
// against it. Token is never read from this file — it is resolved from
// TokenEnv (default GITHUB_TOKEN) at load time, so a config file is safe
// to commit.
type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token_env"`
}

// UserConfig records the local user's identity, used to attribute
// locally authored issues and as the default assignee on create.
type UserConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// RoadmapConfig controls the managed markdown subtree and the
// orchestrator's full-rebuild decision.
type RoadmapConfig struct {
	Dir              string  `yaml:"dir"`
	RebuildThreshold float64 `yaml:"rebuild_threshold"`
}

// DedupConfig mirrors internal/dedup.Config so its thresholds are
// configurable without importing the dedup package into every caller.
type DedupConfig struct {
	TitleSimilarityThreshold   float64 `yaml:"title_similarity_threshold"`
	ContentSimilarityThreshold float64 `yaml:"content_similarity_threshold"`
	AutoResolveThreshold       float64 `yaml:"auto_resolve_threshold"`
	EnableFuzzyMatching        bool    `yaml:"enable_fuzzy_matching"`
	EnableContentCrossMatch    bool    `yaml:"enable_content_cross_match"`
}

// ToDetectorConfig converts to the shape internal/dedup consumes.
func (d DedupConfig) ToDetectorConfig() dedup.Config {
	return dedup.Config{
		TitleSimilarityThreshold:   d.TitleSimilarityThreshold,
		ContentSimilarityThreshold: d.ContentSimilarityThreshold,
		AutoResolveThreshold:       d.AutoResolveThreshold,
		EnableFuzzyMatching:        d.EnableFuzzyMatching,
		EnableContentCrossMatch:    d.EnableContentCrossMatch,
	}
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	LogFormat string `yaml:"log_format"`
}

// NetworkConfig controls the HTTP client's timeouts against the remote
// backend.
type NetworkConfig struct {
	ConnectTimeout string `yaml:"connect_timeout"`
	DataTimeout    string `yaml:"data_timeout"`
	UserAgent      string `yaml:"user_agent"`
}

// Defaults is the optional secondary override file's shape
// (<config-dir>/defaults.toml), decoded with BurntSushi/toml per the
// teacher's own format for this concern. Any non-zero field here is
// applied before the repo's config.yaml during Load, so a machine-wide
// default (e.g. a shared token_env name) need not be repeated per repo.
type Defaults struct {
	GitHub  GitHubConfig  `toml:"github"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}
