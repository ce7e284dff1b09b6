package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads and parses config.yaml at path, validates it, and returns
// the resulting Config. Unknown keys are fatal, with "did you mean?"
// suggestions. The optional machine-wide defaults.toml (DefaultsFilePath)
// is applied first, so a repo's config.yaml need only override what
// differs from the machine default.
func Load(path string, logger *slog.Logger) (*Config, error) {
	logger.Debug("loading config file", "path", path)

	cfg := DefaultConfig()

	if err := applyMachineDefaults(cfg, logger); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(raw); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger.Debug("config file parsed successfully", "path", path,
		"backend", cfg.SyncBackend, "owner", cfg.GitHub.Owner, "repo", cfg.GitHub.Repo)

	return cfg, nil
}

// applyMachineDefaults decodes the optional defaults.toml, if present,
// and overlays its non-zero fields onto cfg before the repo's config.yaml
// is applied.
func applyMachineDefaults(cfg *Config, logger *slog.Logger) error {
	path := DefaultsFilePath()
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	var d Defaults

	if _, err := toml.DecodeFile(path, &d); err != nil {
		return fmt.Errorf("parsing defaults file %s: %w", path, err)
	}

	logger.Debug("applying machine-wide defaults", "path", path)

	overlayGitHubConfig(&cfg.GitHub, d.GitHub)
	overlayLoggingConfig(&cfg.Logging, d.Logging)
	overlayNetworkConfig(&cfg.Network, d.Network)

	return nil
}

func overlayGitHubConfig(dst *GitHubConfig, src GitHubConfig) {
	if src.Owner != "" {
		dst.Owner = src.Owner
	}

	if src.Repo != "" {
		dst.Repo = src.Repo
	}

	if src.TokenEnv != "" {
		dst.TokenEnv = src.TokenEnv
	}
}

func overlayLoggingConfig(dst *LoggingConfig, src LoggingConfig) {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}

	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
}

func overlayNetworkConfig(dst *NetworkConfig, src NetworkConfig) {
	if src.ConnectTimeout != "" {
		dst.ConnectTimeout = src.ConnectTimeout
	}

	if src.DataTimeout != "" {
		dst.DataTimeout = src.DataTimeout
	}

	if src.UserAgent != "" {
		dst.UserAgent = src.UserAgent
	}
}

// LoadOrDefault reads config.yaml if it exists, otherwise returns a
// Config populated with defaults (still running machine-wide defaults
// through it) — supports `init` running before any repo config exists.
func LoadOrDefault(path string, logger *slog.Logger) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Debug("config file not found, using defaults", "path", path)

		cfg := DefaultConfig()
		if err := applyMachineDefaults(cfg, logger); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	return Load(path, logger)
}

// ResolveConfigPath determines the config file path using the
// three-layer priority: CLI flag > environment variable > repo-relative
// default.
func ResolveConfigPath(repoRoot string, env EnvOverrides, cliConfigPath string, logger *slog.Logger) string {
	cfgPath := ConfigPath(repoRoot)
	source := "default"

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
		source = "env"
	}

	if cliConfigPath != "" {
		cfgPath = cliConfigPath
		source = "cli"
	}

	logger.Debug("config path resolved", "path", cfgPath, "source", source)

	return cfgPath
}
