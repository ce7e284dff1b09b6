package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minSimilarity = 0.0
	maxSimilarity = 1.0
	minConnectTimeout = 1 * time.Second
	minDataTimeout     = 5 * time.Second
)

var validSyncBackends = map[string]bool{"github": true, "git": true}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateBackend(cfg)...)
	errs = append(errs, validateDedup(&cfg.Dedup)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

func validateBackend(cfg *Config) []error {
	var errs []error

	if !validSyncBackends[cfg.SyncBackend] {
		errs = append(errs, fmt.Errorf("sync_backend: must be one of github, git; got %q", cfg.SyncBackend))
	}

	if cfg.SyncBackend == "github" {
		if cfg.GitHub.Owner == "" {
			errs = append(errs, errors.New("github.owner: must not be empty when sync_backend is github"))
		}

		if cfg.GitHub.Repo == "" {
			errs = append(errs, errors.New("github.repo: must not be empty when sync_backend is github"))
		}
	}

	return errs
}

func validateDedup(d *DedupConfig) []error {
	var errs []error

	errs = append(errs, validateSimilarity("title_similarity_threshold", d.TitleSimilarityThreshold)...)
	errs = append(errs, validateSimilarity("content_similarity_threshold", d.ContentSimilarityThreshold)...)
	errs = append(errs, validateSimilarity("auto_resolve_threshold", d.AutoResolveThreshold)...)

	return errs
}

func validateSimilarity(field string, value float64) []error {
	if value < minSimilarity || value > maxSimilarity {
		return []error{fmt.Errorf("%s: must be between %.2f and %.2f, got %.2f", field, minSimilarity, maxSimilarity, value)}
	}

	return nil
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validLogFormats = map[string]bool{"auto": true, "text": true, "json": true}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("data_timeout", n.DataTimeout, minDataTimeout)...)

	return errs
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)}
	}

	return nil
}
