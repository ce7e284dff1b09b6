package config

import (
	"fmt"
	"sort"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownSections are the valid top-level keys in config.yaml.
var knownSections = map[string]bool{
	"sync_backend": true, "github": true, "user": true,
	"roadmap": true, "dedup": true, "logging": true, "network": true,
}

var knownSectionsList = sortedKeys(knownSections)

// knownSubKeys maps each section name to its valid keys, so an unknown
// key inside e.g. [github] gets a suggestion scoped to that section
// rather than compared against every other section's keys.
var knownSubKeys = map[string]map[string]bool{
	"github":  {"owner": true, "repo": true, "token_env": true},
	"user":    {"name": true, "email": true},
	"roadmap": {"dir": true, "rebuild_threshold": true},
	"dedup": {
		"title_similarity_threshold": true, "content_similarity_threshold": true,
		"auto_resolve_threshold": true, "enable_fuzzy_matching": true,
		"enable_content_cross_match": true,
	},
	"logging": {"log_level": true, "log_file": true, "log_format": true},
	"network": {"connect_timeout": true, "data_timeout": true, "user_agent": true},
}

var knownSubKeysList = func() map[string][]string {
	out := make(map[string][]string, len(knownSubKeys))
	for section, keys := range knownSubKeys {
		out[section] = sortedKeys(keys)
	}

	return out
}()

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys walks a raw decoded YAML document (map[string]any at
// the top level, nested maps per section) and returns an error with
// "did you mean?" suggestions for every key not in knownSections/
// knownSubKeys. yaml.v3 has no equivalent to toml.MetaData.Undecoded, so
// unknown-key detection here works against the raw map rather than
// decode metadata.
func checkUnknownKeys(raw map[string]any) error {
	var errs []string

	for section, val := range raw {
		if !knownSections[section] {
			errs = append(errs, unknownKeyError(section, knownSectionsList, ""))

			continue
		}

		sub, ok := val.(map[string]any)
		if !ok {
			continue // scalar top-level value (sync_backend) — nothing to walk
		}

		allowed, hasSubKeys := knownSubKeysList[section]
		if !hasSubKeys {
			continue
		}

		for key := range sub {
			if !knownSubKeys[section][key] {
				errs = append(errs, unknownKeyError(key, allowed, section))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}

	joined := errs[0]
	for _, e := range errs[1:] {
		joined += "; " + e
	}

	return fmt.Errorf("%s", joined)
}

func unknownKeyError(key string, known []string, section string) string {
	suggestion := closestMatch(key, known)

	label := key
	if section != "" {
		label = section + "." + key
	}

	if suggestion != "" {
		return fmt.Sprintf("unknown config key %q — did you mean %q?", label, suggestion)
	}

	return fmt.Sprintf("unknown config key %q", label)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = minOf(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// minOf returns the minimum of three integers.
func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
