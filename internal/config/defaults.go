package config

// Default values for configuration options — "layer 0" of the four-layer
// override chain and chosen to be safe, reasonable starting points that
// work without any config file.
const (
	defaultSyncBackend       = "github"
	defaultTokenEnv          = "GITHUB_TOKEN"
	defaultRoadmapDir        = ".roadmap"
	defaultRebuildThreshold  = 0.50
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
	defaultConnectTimeout    = "10s"
	defaultDataTimeout       = "60s"
	defaultTitleSimilarity   = 0.90
	defaultContentSimilarity = 0.85
	defaultAutoResolve       = 0.95
)

// DefaultConfig returns a Config populated with all default values. This
// is used both as the starting point for decoding (so unset fields
// retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		SyncBackend: defaultSyncBackend,
		GitHub: GitHubConfig{
			TokenEnv: defaultTokenEnv,
		},
		Roadmap: RoadmapConfig{
			Dir:              defaultRoadmapDir,
			RebuildThreshold: defaultRebuildThreshold,
		},
		Dedup: DedupConfig{
			TitleSimilarityThreshold:   defaultTitleSimilarity,
			ContentSimilarityThreshold: defaultContentSimilarity,
			AutoResolveThreshold:       defaultAutoResolve,
			EnableFuzzyMatching:        true,
			EnableContentCrossMatch:    false,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			DataTimeout:    defaultDataTimeout,
		},
	}
}
