// Package review gathers unresolved matches for an external reviewer. It
// never resolves a proposal itself.
package review

import (
	"sort"

	"github.com/agenthands/modelstd/internal/core/model"
)

// Reporter keeps the latest proposal per entity across rounds.
type Reporter struct {
	compounds map[string]model.ProposedMatch
	reactions map[string]model.ProposedMatch
}

func NewReporter() *Reporter {
	return &Reporter{
		compounds: make(map[string]model.ProposedMatch),
		reactions: make(map[string]model.ProposedMatch),
	}
}

func (r *Reporter) layer(kind model.Kind) map[string]model.ProposedMatch {
	if kind == model.KindReaction {
		return r.reactions
	}
	return r.compounds
}

// Record replaces any earlier proposal for the same entity.
func (r *Reporter) Record(p model.ProposedMatch) {
	r.layer(p.Kind)[p.Local] = p
}

func (r *Reporter) Clear(kind model.Kind, local string) {
	delete(r.layer(kind), local)
}

func (r *Reporter) Len() int {
	return len(r.compounds) + len(r.reactions)
}

// Final lists the proposals of entities the map still does not translate,
// compounds first, each group ordered by local identifier.
func (r *Reporter) Final(tm *model.TranslationMap) []model.ProposedMatch {
	var out []model.ProposedMatch
	for _, kind := range []model.Kind{model.KindCompound, model.KindReaction} {
		layer := r.layer(kind)
		locals := make([]string, 0, len(layer))
		for local := range layer {
			if _, done := tm.Lookup(kind, local); !done {
				locals = append(locals, local)
			}
		}
		sort.Strings(locals)
		for _, local := range locals {
			out = append(out, layer[local])
		}
	}
	return out
}

// Summarize counts every entity of wm by final tier. An entity is ambiguous
// when it has a proposal and unmatched when it has neither an entry nor a
// proposal.
func Summarize(wm *model.WorkingModel, tm *model.TranslationMap, proposals []model.ProposedMatch) (compounds, reactions model.TierCounts) {
	proposed := map[model.Kind]map[string]bool{
		model.KindCompound: {},
		model.KindReaction: {},
	}
	for _, p := range proposals {
		proposed[p.Kind][p.Local] = true
	}
	count := func(kind model.Kind, ids []string) model.TierCounts {
		c := model.TierCounts{Total: len(ids)}
		for _, id := range ids {
			if e, ok := tm.Lookup(kind, id); ok {
				if e.Tier == model.TierExact {
					c.Exact++
				} else {
					c.Probable++
				}
				continue
			}
			if proposed[kind][id] {
				c.Ambiguous++
			} else {
				c.Unmatched++
			}
		}
		return c
	}
	return count(model.KindCompound, wm.CompoundIDs()), count(model.KindReaction, wm.ReactionIDs())
}
