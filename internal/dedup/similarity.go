package dedup

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Default thresholds, matching the Python original's DuplicateDetector
// defaults (spec.md §4.6.4).
const (
	DefaultTitleSimilarityThreshold   = 0.90
	DefaultContentSimilarityThreshold = 0.85
	DefaultAutoResolveThreshold       = 0.95
)

// normalizeTransformer strips combining marks after NFKD decomposition,
// giving a casefold-friendly ASCII-ish form before whitespace collapse.
// Reused across every similarity call rather than allocated per call.
var normalizeTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// normalize lowercases, strips accents and collapses internal whitespace
// runs to single spaces, matching spec.md §4.6.4's normalization rule.
func normalize(s string) string {
	folded, _, err := transform.String(normalizeTransformer, s)
	if err != nil {
		folded = s
	}

	folded = strings.ToLower(folded)
	fields := strings.Fields(folded)

	return strings.Join(fields, " ")
}

// ratio computes the Ratcliff-Obershelp / SequenceMatcher-style LCS
// ratio between two strings, normalizing both first. Built on
// github.com/pmezard/go-difflib, a direct Go port of Python's
// difflib.SequenceMatcher — the library the original detector almost
// certainly calls for this exact computation.
func ratio(a, b string) float64 {
	na, nb := normalize(a), normalize(b)

	if na == nb {
		return 1.0
	}

	matcher := difflib.NewMatcher(toRuneTokens(na), toRuneTokens(nb))

	return matcher.Ratio()
}

// toRuneTokens splits a string into one-token-per-rune slices, since
// difflib.Matcher operates over []string sequences rather than raw
// strings directly.
func toRuneTokens(s string) []string {
	runesSlice := []rune(s)
	out := make([]string, len(runesSlice))

	for i, r := range runesSlice {
		out[i] = string(r)
	}

	return out
}

// TitleRatio returns the normalized LCS ratio between two titles.
func TitleRatio(a, b string) float64 { return ratio(a, b) }

// ContentRatio returns the normalized LCS ratio between two bodies.
func ContentRatio(a, b string) float64 { return ratio(a, b) }

// TitlesEqual reports whether two titles are equal after trimming
// (exact-title bucketing uses string equality after trim, not the LCS
// ratio — spec.md §4.6.1 step 2).
func TitlesEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// TitlesEqualFold reports whether two titles are equal after
// lowercasing and trimming — the cross-match exact-equality rule
// (spec.md §4.6.2: "Normalize both titles (lower, trim). Exact
// equality -> title_exact"), distinct from TitlesEqual's
// case-sensitive self-dedup rule.
func TitlesEqualFold(a, b string) bool {
	return strings.ToLower(strings.TrimSpace(a)) == strings.ToLower(strings.TrimSpace(b))
}

// CoarseBucketKey returns the first three characters of the normalized
// title, used to bucket candidates before the O(k²) fuzzy pairwise pass
// (spec.md §4.6.1 step 4).
func CoarseBucketKey(title string) string {
	n := normalize(title)
	r := []rune(n)

	if len(r) <= 3 {
		return n
	}

	return string(r[:3])
}
