package dedup

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ghsync/ghsync/internal/model"
)

// Resolver turns DuplicateMatch records into ResolutionActions. Grounded
// on
// original_source/roadmap/core/services/sync/duplicate_resolver.py.
// The resolver is the only place that consults AutoResolveThreshold; the
// detector's Recommended field is advisory only.
type Resolver struct {
	cfg Config
}

// NewResolver constructs a Resolver bound to cfg's AutoResolveThreshold.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// ResolveAutomatic converts matches into link-only ResolutionActions for
// every match whose confidence clears AutoResolveThreshold and whose
// recommendation is auto-merge. Critically, automatic resolution never
// mutates state during analysis: it always emits ActionLink, because the
// remote side may not exist as a local row yet — the actual merge is
// deferred to the Sync Executor (spec.md §4.7).
func (r *Resolver) ResolveAutomatic(matches []*model.DuplicateMatch) []*model.ResolutionAction {
	var actions []*model.ResolutionAction

	for _, m := range matches {
		if m.Confidence < r.cfg.AutoResolveThreshold || m.Recommended != model.RecommendAutoMerge {
			continue
		}

		actions = append(actions, &model.ResolutionAction{
			Match:       m,
			Action:      model.ActionLink,
			CanonicalID: m.LocalEntity.ID(),
			DuplicateID: m.RemoteEntity.ID(),
			Confidence:  m.Confidence,
		})
	}

	return actions
}

// MergeFunc merges a local entity with a remote entity, returning the
// canonical entity's ID on success. Satisfied by the issue service the
// resolver is wired to at the orchestrator layer.
type MergeFunc func(localID, remoteID string) (canonicalID string, err error)

// InteractiveChoice is the operator's decision for one match.
type InteractiveChoice string

const (
	ChoiceMerge InteractiveChoice = "merge"
	ChoiceKeep  InteractiveChoice = "keep"
	ChoiceSkip  InteractiveChoice = "skip"
)

// PromptFunc renders a match to the operator and returns their choice.
// The CLI layer supplies the concrete implementation (stdin/stdout);
// tests supply a canned sequence.
type PromptFunc func(m *model.DuplicateMatch) InteractiveChoice

// ResolveInteractive walks matches one at a time, rendering a
// side-by-side comparison and prompting for merge/keep/skip. `merge`
// invokes mergeFn; on failure it degrades to skip carrying the error
// (spec.md §4.7).
func (r *Resolver) ResolveInteractive(matches []*model.DuplicateMatch, prompt PromptFunc, mergeFn MergeFunc) []*model.ResolutionAction {
	actions := make([]*model.ResolutionAction, 0, len(matches))

	for _, m := range matches {
		choice := prompt(m)

		switch choice {
		case ChoiceMerge:
			canonicalID, err := mergeFn(m.LocalEntity.ID(), m.RemoteEntity.ID())
			if err != nil {
				actions = append(actions, &model.ResolutionAction{
					Match: m, Action: model.ActionSkip, DuplicateID: m.RemoteEntity.ID(),
					Confidence: m.Confidence, Err: err,
				})

				continue
			}

			actions = append(actions, &model.ResolutionAction{
				Match: m, Action: model.ActionMerge, CanonicalID: canonicalID,
				DuplicateID: m.RemoteEntity.ID(), Confidence: m.Confidence,
			})

		case ChoiceKeep:
			actions = append(actions, &model.ResolutionAction{
				Match: m, Action: model.ActionKeep, CanonicalID: m.LocalEntity.ID(),
				DuplicateID: m.RemoteEntity.ID(), Confidence: m.Confidence,
			})

		default:
			actions = append(actions, &model.ResolutionAction{
				Match: m, Action: model.ActionSkip, DuplicateID: m.RemoteEntity.ID(),
				Confidence: m.Confidence,
			})
		}
	}

	return actions
}

// FormatMatch renders a side-by-side comparison table for w (a terminal
// or any writer), covering the fields the original's Rich panel showed:
// title, match type, confidence, and similarity details. Plain
// text/tabwriter output, matching the teacher's non-TUI CLI idiom rather
// than pulling in a terminal UI framework absent from its dependency
// set.
func FormatMatch(w io.Writer, m *model.DuplicateMatch) error {
	bw := bufio.NewWriter(w)
	tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "field\tlocal\tremote\n")
	fmt.Fprintf(tw, "id\t%s\t%s\n", m.LocalEntity.ID(), m.RemoteEntity.ID())
	fmt.Fprintf(tw, "title\t%s\t%s\n", m.LocalEntity.Title(), m.RemoteEntity.Title())
	fmt.Fprintf(tw, "match type\t%s\t\n", m.Type)
	fmt.Fprintf(tw, "confidence\t%.2f\t\n", m.Confidence)

	for k, v := range m.Details {
		fmt.Fprintf(tw, "%s\t%v\t\n", k, v)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	return bw.Flush()
}
