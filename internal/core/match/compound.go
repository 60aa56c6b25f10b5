// Package match classifies local compounds and reactions against the
// reference database.
package match

import (
	"sort"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
)

// CompoundResult carries at most one of Entry and Proposal. Both are nil for
// a miss.
type CompoundResult struct {
	Entry    *model.TranslationEntry
	Proposal *model.ProposedMatch
}

type CompoundMatcher struct {
	DB biochem.ReferenceDatabase
}

func NewCompoundMatcher(db biochem.ReferenceDatabase) *CompoundMatcher {
	return &CompoundMatcher{DB: db}
}

// evidence accumulates the sources that support each candidate.
type evidence map[string]map[model.EvidenceKind]bool

func (e evidence) add(id string, kind model.EvidenceKind) {
	if e[id] == nil {
		e[id] = make(map[model.EvidenceKind]bool)
	}
	e[id][kind] = true
}

func (e evidence) candidates(ids []string) []model.Candidate {
	sort.Strings(ids)
	out := make([]model.Candidate, 0, len(ids))
	for _, id := range ids {
		kinds := e[id]
		var ev []model.EvidenceKind
		switch {
		case kinds[model.EvidenceFormula] && kinds[model.EvidenceAlias]:
			ev = append(ev, model.EvidenceFormulaAndAlias)
		case kinds[model.EvidenceFormula]:
			ev = append(ev, model.EvidenceFormula)
		case kinds[model.EvidenceAlias]:
			ev = append(ev, model.EvidenceAlias)
		}
		if kinds[model.EvidenceReactionContext] {
			ev = append(ev, model.EvidenceReactionContext)
		}
		out = append(out, model.Candidate{Canonical: id, Evidence: ev})
	}
	return out
}

// Match classifies one compound. hints are canonical identifiers proposed by
// reaction context in an earlier round; a single distinct hint breaks a tie.
func (m *CompoundMatcher) Match(c *model.Compound, hints []string) CompoundResult {
	ev := make(evidence)

	formulaSet := make(map[string]bool)
	for _, hit := range m.DB.CompoundsByFormulaCharge(c.Formula, c.Charge) {
		formulaSet[hit.ID] = true
		ev.add(hit.ID, model.EvidenceFormula)
	}
	aliasSet := make(map[string]bool)
	for _, key := range aliasKeys(c) {
		for _, hit := range m.DB.CompoundsByAlias(key) {
			aliasSet[hit.ID] = true
			ev.add(hit.ID, model.EvidenceAlias)
		}
	}

	var survivors []string
	tier := model.TierProbable
	switch {
	case len(formulaSet) == 1:
		only := keys(formulaSet)[0]
		if len(aliasSet) == 0 || aliasSet[only] {
			return accept(c.ID, only, model.TierExact, ev)
		}
		// Formula and aliases disagree.
		survivors = union(formulaSet, aliasSet)
	case len(formulaSet) > 1:
		survivors = intersect(formulaSet, aliasSet)
		if len(survivors) == 0 {
			survivors = union(formulaSet, aliasSet)
		}
	default:
		survivors = keys(aliasSet)
	}

	if len(survivors) == 1 {
		return accept(c.ID, survivors[0], tier, ev)
	}

	hint, unanimous := single(hints)
	if len(survivors) > 1 {
		if unanimous && contains(survivors, hint) {
			ev.add(hint, model.EvidenceReactionContext)
			entry := accept(c.ID, hint, model.TierProbable, ev)
			entry.Entry.Source = string(model.EvidenceReactionContext)
			return entry
		}
		return CompoundResult{Proposal: &model.ProposedMatch{
			Kind:       model.KindCompound,
			Local:      c.ID,
			Candidates: ev.candidates(survivors),
		}}
	}

	// No formula or alias evidence at all: reaction context alone is never
	// enough to accept.
	distinct := uniq(hints)
	if len(distinct) == 0 {
		return CompoundResult{}
	}
	for _, h := range distinct {
		ev.add(h, model.EvidenceReactionContext)
	}
	return CompoundResult{Proposal: &model.ProposedMatch{
		Kind:       model.KindCompound,
		Local:      c.ID,
		Candidates: ev.candidates(distinct),
	}}
}

func accept(local, canonical string, tier model.Tier, ev evidence) CompoundResult {
	source := ""
	if cands := ev.candidates([]string{canonical}); len(cands[0].Evidence) > 0 {
		source = string(cands[0].Evidence[0])
	}
	return CompoundResult{Entry: &model.TranslationEntry{
		Local:     local,
		Canonical: canonical,
		Tier:      tier,
		Source:    source,
	}}
}

// aliasKeys lists the identifiers of a compound that are looked up as
// aliases: the identifier itself, its base without compartment, the name and
// every cross-reference.
func aliasKeys(c *model.Compound) []string {
	out := []string{c.ID}
	if base := common.ParseID(c.ID).Base; base != c.ID {
		out = append(out, base)
	}
	if c.Name != "" {
		out = append(out, c.Name)
	}
	return append(out, c.Aliases...)
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func intersect(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func union(a, b map[string]bool) []string {
	all := make(map[string]bool, len(a)+len(b))
	for k := range a {
		all[k] = true
	}
	for k := range b {
		all[k] = true
	}
	return keys(all)
}

func uniq(ids []string) []string {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return keys(set)
}

func single(ids []string) (string, bool) {
	distinct := uniq(ids)
	if len(distinct) != 1 {
		return "", false
	}
	return distinct[0], true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
