// Package dedup implements the Duplicate Detector and Duplicate
// Resolver: a two-phase dedup pass (self-dedup via bucketed union-find,
// then cross-side matching) producing ranked DuplicateMatch records,
// followed by a resolver turning matches into ResolutionActions.
//
// Grounded on
// original_source/roadmap/core/services/sync/duplicate_detector.py and
// original_source/roadmap/common/union_find.py.
package dedup

import (
	"context"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ghsync/ghsync/internal/model"
)

// Config holds the detector's tunable thresholds, defaulting to the
// values the original implementation ships (spec.md §4.6.4).
type Config struct {
	TitleSimilarityThreshold   float64
	ContentSimilarityThreshold float64
	AutoResolveThreshold       float64
	EnableFuzzyMatching        bool // self-dedup fuzzy title fallback; off by default
	EnableContentCrossMatch    bool // cross-side content similarity; off by default — see Open Question in SPEC_FULL.md §9
}

// DefaultConfig returns the detector's default thresholds.
func DefaultConfig() Config {
	return Config{
		TitleSimilarityThreshold:   DefaultTitleSimilarityThreshold,
		ContentSimilarityThreshold: DefaultContentSimilarityThreshold,
		AutoResolveThreshold:       DefaultAutoResolveThreshold,
		EnableFuzzyMatching:        false,
		EnableContentCrossMatch:    false,
	}
}

// SelfDedupStats reports the aggregate counters spec.md §4.6.1 step 6
// asks the detector to log.
type SelfDedupStats struct {
	TitleMatches      int
	IDCollisions      int
	SimilarityMatches int
	InputCount        int
	CanonicalCount    int
}

// SelfDedup collapses entities sharing a title, a backend ID (for
// `backend`), or — optionally — a fuzzy-matched title, to one canonical
// representative per equivalence class. The representative is the class's
// union-find root, which is not necessarily its earliest member; classes
// are returned in the input order of their first member.
func SelfDedup(ctx context.Context, entities []model.Entity, backend string, cfg Config) ([]model.Entity, SelfDedupStats, error) {
	stats := SelfDedupStats{InputCount: len(entities)}

	if len(entities) == 0 {
		return nil, stats, nil
	}

	ids := make([]string, len(entities))
	byID := make(map[string]model.Entity, len(entities))

	for i, e := range entities {
		ids[i] = e.ID()
		byID[e.ID()] = e
	}

	uf := NewUnionFind(ids)

	// Step 2: exact title bucketing. Plain trim equality, not the
	// lowercase+accent-stripped normalize() used for the fuzzy coarse
	// bucket below — spec.md §4.6.1 step 2 is case-sensitive.
	titleBuckets := make(map[string][]string)
	for _, e := range entities {
		key := strings.TrimSpace(e.Title())
		titleBuckets[key] = append(titleBuckets[key], e.ID())
	}

	exactTitleKeys := make(map[string]bool)

	for key, members := range titleBuckets {
		if len(members) <= 1 {
			continue
		}

		exactTitleKeys[key] = true

		for i := 1; i < len(members); i++ {
			if uf.Union(members[0], members[i]) {
				stats.TitleMatches++
			}
		}
	}

	// Step 3: primary-key collisions.
	idBuckets := make(map[string][]string)

	for _, e := range entities {
		remoteID, ok := e.RemoteID(backend)
		if !ok || remoteID == "" {
			continue
		}

		idBuckets[remoteID] = append(idBuckets[remoteID], e.ID())
	}

	for _, members := range idBuckets {
		if len(members) <= 1 {
			continue
		}

		for i := 1; i < len(members); i++ {
			if uf.Union(members[0], members[i]) {
				stats.IDCollisions++
			}
		}
	}

	// Step 4: fuzzy title fallback, gated by EnableFuzzyMatching.
	if cfg.EnableFuzzyMatching {
		n, err := fuzzyTitleFallback(ctx, entities, exactTitleKeys, uf, cfg.TitleSimilarityThreshold)
		if err != nil {
			return nil, stats, err
		}

		stats.SimilarityMatches = n
	}

	// Step 5: pick one representative per root, insertion order.
	seen := make(map[string]bool)
	canonical := make([]model.Entity, 0, len(entities))

	for _, e := range entities {
		root := uf.Find(e.ID())
		if seen[root] {
			continue
		}

		seen[root] = true
		canonical = append(canonical, byID[root])
	}

	stats.CanonicalCount = len(canonical)

	return canonical, stats, nil
}

// fuzzyTitleFallback buckets entities by the first three normalized
// title characters, skipping buckets already collapsed by exact-title
// matching, and pairwise-compares within each bucket concurrently
// (bounded by runtime.NumCPU()) since bucket comparisons are independent
// of one another.
func fuzzyTitleFallback(ctx context.Context, entities []model.Entity, exactTitleKeys map[string]bool, uf *UnionFind[string], threshold float64) (int, error) {
	coarse := make(map[string][]model.Entity)

	for _, e := range entities {
		titleKey := strings.TrimSpace(e.Title())
		if exactTitleKeys[titleKey] {
			continue
		}

		bucket := CoarseBucketKey(e.Title())
		coarse[bucket] = append(coarse[bucket], e)
	}

	type pairUnion struct{ a, b string }

	results := make([][]pairUnion, len(coarse))
	buckets := make([][]model.Entity, 0, len(coarse))

	for _, members := range coarse {
		if len(members) > 1 {
			buckets = append(buckets, members)
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, members := range buckets {
		i, members := i, members

		g.Go(func() error {
			var pairs []pairUnion

			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					if TitleRatio(members[a].Title(), members[b].Title()) >= threshold {
						pairs = append(pairs, pairUnion{members[a].ID(), members[b].ID()})
					}
				}
			}

			results[i] = pairs

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	count := 0

	for _, pairs := range results {
		for _, p := range pairs {
			if uf.Union(p.a, p.b) {
				count++
			}
		}
	}

	return count, nil
}

// CrossMatch produces ranked DuplicateMatch candidates between two
// already self-deduped entity sets. Invoked only after self-dedup, per
// spec.md §4.6.2.
func CrossMatch(local, remote []model.Entity, backend string, cfg Config) []*model.DuplicateMatch {
	var matches []*model.DuplicateMatch

	remoteByID := make(map[string]model.Entity, len(remote))
	for _, r := range remote {
		remoteByID[r.ID()] = r
	}

	for _, l := range local {
		matches = append(matches, detectIDCollision(l, remoteByID, backend)...)
		matches = append(matches, detectTitleMatches(l, remote, cfg)...)

		if cfg.EnableContentCrossMatch {
			matches = append(matches, detectContentMatches(l, remote, cfg)...)
		}
	}

	return deduplicateAndSort(matches)
}

// detectIDCollision implements spec.md §4.6.2's ID-collision rule,
// preserving the OR semantics flagged as an Open Question in
// SPEC_FULL.md §9: recommended manual_review fires when
// title_similarity < 0.80 OR content_similarity < 0.80; otherwise the
// pair is considered the same record already and no match is emitted.
func detectIDCollision(l model.Entity, remoteByID map[string]model.Entity, backend string) []*model.DuplicateMatch {
	remoteID, ok := l.RemoteID(backend)
	if !ok || remoteID == "" {
		return nil
	}

	r, found := remoteByID[remoteID]
	if !found {
		return nil
	}

	titleSim := TitleRatio(l.Title(), r.Title())
	contentSim := ContentRatio(l.Content(), r.Content())

	if !(titleSim < 0.80 || contentSim < 0.80) {
		return nil
	}

	m, err := model.NewDuplicateMatch(l, r, model.MatchIDCollision, 1.0, model.RecommendManualReview, map[string]any{
		"title_similarity":   titleSim,
		"content_similarity": contentSim,
	})
	if err != nil {
		return nil
	}

	return []*model.DuplicateMatch{m}
}

func detectTitleMatches(l model.Entity, remote []model.Entity, cfg Config) []*model.DuplicateMatch {
	var out []*model.DuplicateMatch

	for _, r := range remote {
		if TitlesEqualFold(l.Title(), r.Title()) {
			m, err := model.NewDuplicateMatch(l, r, model.MatchTitleExact, 0.98, model.RecommendAutoMerge, nil)
			if err == nil {
				out = append(out, m)
			}

			continue
		}

		ratio := TitleRatio(l.Title(), r.Title())
		if ratio >= cfg.TitleSimilarityThreshold {
			m, err := model.NewDuplicateMatch(l, r, model.MatchTitleSimilar, ratio, model.RecommendManualReview, map[string]any{
				"title_ratio": ratio,
			})
			if err == nil {
				out = append(out, m)
			}
		}
	}

	return out
}

// detectContentMatches implements the (disabled-by-default) content
// similarity cross-match named in spec.md §4.6.2/§9. Gated on
// content_ratio >= ContentSimilarityThreshold before emitting, so
// enabling this does not flood the result with one match per (local,
// remote) pair — a deliberate tightening over the literal spec text,
// recorded in DESIGN.md.
func detectContentMatches(l model.Entity, remote []model.Entity, cfg Config) []*model.DuplicateMatch {
	var out []*model.DuplicateMatch

	for _, r := range remote {
		contentRatio := ContentRatio(l.Content(), r.Content())
		if contentRatio < cfg.ContentSimilarityThreshold {
			continue
		}

		titleRatio := TitleRatio(l.Title(), r.Title())
		combined := 0.6*contentRatio + 0.4*titleRatio

		recommended := model.RecommendManualReview
		if combined >= cfg.AutoResolveThreshold {
			recommended = model.RecommendAutoMerge
		}

		m, err := model.NewDuplicateMatch(l, r, model.MatchContentSimilar, combined, recommended, map[string]any{
			"content_ratio": contentRatio,
			"title_ratio":   titleRatio,
		})
		if err == nil {
			out = append(out, m)
		}
	}

	return out
}

// deduplicateAndSort collapses matches sharing a (local.ID, remote.ID)
// key to the highest-confidence match, then sorts the result by
// confidence descending with a stable tie-break (spec.md §4.6.3).
func deduplicateAndSort(matches []*model.DuplicateMatch) []*model.DuplicateMatch {
	best := make(map[[2]string]*model.DuplicateMatch)
	order := make([][2]string, 0, len(matches))

	for _, m := range matches {
		key := [2]string{m.LocalEntity.ID(), m.RemoteEntity.ID()}

		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = m

			continue
		}

		if m.Confidence > existing.Confidence {
			best[key] = m
		}
	}

	out := make([]*model.DuplicateMatch, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	return out
}
