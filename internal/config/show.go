package config

import (
	"fmt"
	"io"
)

// RenderEffective writes cfg as a human-readable annotated summary to w.
// This powers the `config show` command, giving users
// visibility into the effective values after machine defaults and the
// repo's config.yaml have both been applied.
func RenderEffective(cfg *Config, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("sync_backend = %q\n\n", cfg.SyncBackend)

	ew.printf("[github]\n")
	ew.printf("  owner     = %q\n", cfg.GitHub.Owner)
	ew.printf("  repo      = %q\n", cfg.GitHub.Repo)
	ew.printf("  token_env = %q\n\n", cfg.GitHub.TokenEnv)

	ew.printf("[user]\n")
	ew.printf("  name  = %q\n", cfg.User.Name)
	ew.printf("  email = %q\n\n", cfg.User.Email)

	ew.printf("[roadmap]\n")
	ew.printf("  dir               = %q\n", cfg.Roadmap.Dir)
	ew.printf("  rebuild_threshold = %g\n\n", cfg.Roadmap.RebuildThreshold)

	ew.printf("[dedup]\n")
	ew.printf("  title_similarity_threshold   = %g\n", cfg.Dedup.TitleSimilarityThreshold)
	ew.printf("  content_similarity_threshold = %g\n", cfg.Dedup.ContentSimilarityThreshold)
	ew.printf("  auto_resolve_threshold       = %g\n", cfg.Dedup.AutoResolveThreshold)
	ew.printf("  enable_fuzzy_matching        = %t\n", cfg.Dedup.EnableFuzzyMatching)
	ew.printf("  enable_content_cross_match   = %t\n\n", cfg.Dedup.EnableContentCrossMatch)

	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", cfg.Logging.LogLevel)

	if cfg.Logging.LogFile != "" {
		ew.printf("  log_file   = %q\n", cfg.Logging.LogFile)
	}

	ew.printf("  log_format = %q\n\n", cfg.Logging.LogFormat)

	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", cfg.Network.ConnectTimeout)
	ew.printf("  data_timeout    = %q\n", cfg.Network.DataTimeout)

	if cfg.Network.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", cfg.Network.UserAgent)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
