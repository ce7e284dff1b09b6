package syncerr

import "strings"

// maxSamples bounds the number of sample messages/IDs kept per category.
const maxSamples = 5

// categoryRule is one (predicate-keywords, category) waterfall entry.
// Order is significant: predicates are tried top to bottom and the
// first match wins, matching the fixed specificity order the spec
// requires (foreign-key -> milestone-missing -> project-missing ->
// dependency-missing -> rate-limit -> network -> timeout ->
// service-unavailable -> auth -> permission -> token-expired ->
// integrity/duplicate/validation -> deleted -> not-found ->
// file-system -> unknown).
type categoryRule struct {
	keywords []string
	category Type
}

var waterfall = []categoryRule{
	{[]string{"foreign key"}, DatabaseError},
	{[]string{"milestone", "not found"}, MilestoneNotFound},
	{[]string{"project", "not found"}, ProjectNotFound},
	{[]string{"dependency", "not found"}, ValidationError},
	{[]string{"rate limit"}, APIRateLimit},
	{[]string{"network"}, NetworkError},
	{[]string{"timeout"}, Timeout},
	{[]string{"unavailable"}, ServiceUnavailable},
	{[]string{"auth"}, AuthenticationFailed},
	{[]string{"permission"}, PermissionDenied},
	{[]string{"token", "expired"}, TokenExpired},
	{[]string{"duplicate"}, DuplicateEntity},
	{[]string{"unique"}, DuplicateEntity},
	{[]string{"validation"}, ValidationError},
	{[]string{"schema"}, SchemaMismatch},
	{[]string{"deleted"}, ResourceDeleted},
	{[]string{"not found"}, ResourceNotFound},
	{[]string{"file"}, FileSystemError},
	{[]string{"disk"}, FileSystemError},
}

func determineCategory(message, excType string) Type {
	lower := strings.ToLower(message + " " + excType)

	for _, rule := range waterfall {
		matched := true

		for _, kw := range rule.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}

		if matched {
			return rule.category
		}
	}

	return UnknownError
}

// categoryStats accumulates per-category counts and bounded samples.
type categoryStats struct {
	Count    int
	Samples  []string
	EntityIDs []string
}

// Classifier categorizes every error surfaced during a sync run,
// accumulating per-category counts and bounded samples, then producing
// a recovery-oriented summary. Grounded on
// original_source/roadmap/core/services/sync/error_classification.py.
type Classifier struct {
	stats map[Type]*categoryStats
}

// NewClassifier returns an empty Classifier.
func NewClassifier() *Classifier {
	return &Classifier{stats: make(map[Type]*categoryStats)}
}

// Classify categorizes one error occurrence and records it for the
// aggregate summary. Returns the SyncError it produced so the caller
// can also put it directly into a per-entity error map.
func (c *Classifier) Classify(message, excType, entityType, entityID string) *SyncError {
	category := determineCategory(message, excType)

	se := New(category, message)
	se.EntityType = entityType
	se.EntityID = entityID

	c.record(category, message, entityID)

	return se
}

func (c *Classifier) record(category Type, message, entityID string) {
	st, ok := c.stats[category]
	if !ok {
		st = &categoryStats{}
		c.stats[category] = st
	}

	st.Count++

	if len(st.Samples) < maxSamples {
		st.Samples = append(st.Samples, message)
	}

	if entityID != "" && len(st.EntityIDs) < maxSamples {
		st.EntityIDs = append(st.EntityIDs, entityID)
	}
}

// CategorySummary is one row of Summary()'s output.
type CategorySummary struct {
	Category  Type
	Count     int
	Samples   []string
	EntityIDs []string
}

// Summary returns categories sorted by count descending, stable on ties
// by category name (insertion-order-independent, deterministic output).
func (c *Classifier) Summary() []CategorySummary {
	out := make([]CategorySummary, 0, len(c.stats))

	for cat, st := range c.stats {
		out = append(out, CategorySummary{Category: cat, Count: st.Count, Samples: st.Samples, EntityIDs: st.EntityIDs})
	}

	// Stable sort by count descending, category name ascending on ties.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out
}

func less(a, b CategorySummary) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}

	return a.Category < b.Category
}

// SummaryDict groups categories under higher-level buckets and returns
// the count per bucket.
func (c *Classifier) SummaryDict() map[Bucket]int {
	out := make(map[Bucket]int)

	for cat, st := range c.stats {
		out[BucketFor(cat)] += st.Count
	}

	return out
}

// GetRecommendation returns the top-level remediation string for a
// bucket.
func (c *Classifier) GetRecommendation(b Bucket) string {
	return Recommendation(b)
}

// IssuesByCategory returns the bounded sample entity IDs recorded for a
// category.
func (c *Classifier) IssuesByCategory(t Type) []string {
	if st, ok := c.stats[t]; ok {
		return st.EntityIDs
	}

	return nil
}
