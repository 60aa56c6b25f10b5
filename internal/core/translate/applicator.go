// Package translate rewrites a working model into canonical identifiers.
package translate

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
)

type Stats struct {
	CompoundsRenamed      int      `json:"compounds_renamed"`
	ReactionsRenamed      int      `json:"reactions_renamed"`
	ReactionsReversed     int      `json:"reactions_reversed"`
	UntranslatedCompounds []string `json:"untranslated_compounds,omitempty"`
	UntranslatedReactions []string `json:"untranslated_reactions,omitempty"`
}

type Applicator struct {
	Logger *zap.Logger
}

func NewApplicator(logger *zap.Logger) *Applicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applicator{Logger: logger}
}

// Apply returns a copy of wm with every translated identifier replaced by its
// canonical identifier. wm itself is not modified. Entities the map does not
// name keep their identifiers, so applying the same map twice changes
// nothing the second time.
func (a *Applicator) Apply(wm *model.WorkingModel, tm *model.TranslationMap) (*model.WorkingModel, Stats, error) {
	var stats Stats

	compoundIDs, err := plan(model.KindCompound, wm.CompoundIDs(), tm, func(id string) string {
		return common.NormalizeCompartment(wm.Compounds[id].Compartment)
	}, &stats.UntranslatedCompounds)
	if err != nil {
		return nil, Stats{}, err
	}
	reactionIDs, err := plan(model.KindReaction, wm.ReactionIDs(), tm, func(id string) string {
		return strings.Join(wm.Reactions[id].Compartments, "")
	}, &stats.UntranslatedReactions)
	if err != nil {
		return nil, Stats{}, err
	}

	out := model.NewWorkingModel(wm.ID)
	for _, id := range wm.CompoundIDs() {
		c := *wm.Compounds[id]
		c.Aliases = append([]string(nil), c.Aliases...)
		if newID := compoundIDs[id]; newID != id {
			c.Aliases = appendAlias(c.Aliases, id)
			c.ID = newID
			stats.CompoundsRenamed++
		}
		out.Compounds[c.ID] = &c
	}
	for _, id := range wm.ReactionIDs() {
		r := *wm.Reactions[id]
		r.Stoichiometry = make(model.Stoichiometry, len(wm.Reactions[id].Stoichiometry))
		for cpd, coef := range wm.Reactions[id].Stoichiometry {
			r.Stoichiometry[compoundIDs[cpd]] = coef
		}
		if newID := reactionIDs[id]; newID != id {
			r.ID = newID
			stats.ReactionsRenamed++
			if e, _ := tm.Lookup(model.KindReaction, id); e.Reversed {
				r.Stoichiometry = r.Stoichiometry.Negate()
				r.Direction = r.Direction.Flip()
				stats.ReactionsReversed++
			}
		}
		out.Reactions[r.ID] = &r
	}
	out.SyncCompartments()

	a.Logger.Info("translation applied",
		zap.Int("compounds_renamed", stats.CompoundsRenamed),
		zap.Int("reactions_renamed", stats.ReactionsRenamed),
		zap.Int("reactions_reversed", stats.ReactionsReversed),
		zap.Int("compounds_untranslated", len(stats.UntranslatedCompounds)),
		zap.Int("reactions_untranslated", len(stats.UntranslatedReactions)))
	return out, stats, nil
}

// plan computes the new identifier of every entity. Several locals mapped to
// one canonical identifier are told apart by a compartment suffix; when the
// compartment cannot tell them apart, or two entities would end up with the
// same identifier, a CollisionError names both.
func plan(kind model.Kind, ids []string, tm *model.TranslationMap, compartment func(string) string, untranslated *[]string) (map[string]string, error) {
	groups := make(map[string][]string)
	identity := make(map[string]bool)
	for _, id := range ids {
		e, ok := tm.Lookup(kind, id)
		if !ok {
			*untranslated = append(*untranslated, id)
			continue
		}
		if e.Canonical == id {
			identity[id] = true
			continue
		}
		groups[e.Canonical] = append(groups[e.Canonical], id)
	}
	// A local already named canonical shares the group with any other local
	// renamed to it, so all of them take a compartment suffix.
	for canonical := range identity {
		if locals, ok := groups[canonical]; ok {
			groups[canonical] = append([]string{canonical}, locals...)
		}
	}

	rename := make(map[string]string, len(ids))
	for _, id := range ids {
		rename[id] = id
	}
	canonicals := make([]string, 0, len(groups))
	for canonical := range groups {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)
	for _, canonical := range canonicals {
		locals := groups[canonical]
		if len(locals) == 1 {
			rename[locals[0]] = canonical
			continue
		}
		byCompartment := make(map[string]string, len(locals))
		for _, local := range locals {
			comp := compartment(local)
			if first, clash := byCompartment[comp]; clash {
				return nil, &model.CollisionError{Kind: kind, Canonical: canonical, First: first, Second: local}
			}
			byCompartment[comp] = local
			rename[local] = canonical + "_" + comp + "0"
		}
	}

	owner := make(map[string]string, len(ids))
	for _, id := range ids {
		target := rename[id]
		if first, clash := owner[target]; clash {
			return nil, &model.CollisionError{Kind: kind, Canonical: target, First: first, Second: id}
		}
		owner[target] = id
	}
	return rename, nil
}

func appendAlias(aliases []string, alias string) []string {
	for _, a := range aliases {
		if a == alias {
			return aliases
		}
	}
	return append(aliases, alias)
}
