package match

import (
	"math"
	"sort"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
)

// DefaultMaxCombinations bounds the candidate substitutions tried for one
// reaction with untranslated compounds.
const DefaultMaxCombinations = 64

// ReactionResult carries at most one of Entry and Proposal. Hints map local
// compound identifiers to the canonical compound a unique reaction candidate
// implies for them.
type ReactionResult struct {
	Entry    *model.TranslationEntry
	Proposal *model.ProposedMatch
	Hints    map[string]string
}

type ReactionMatcher struct {
	DB              biochem.ReferenceDatabase
	MaxCombinations int
}

func NewReactionMatcher(db biochem.ReferenceDatabase, maxCombinations int) *ReactionMatcher {
	if maxCombinations <= 0 {
		maxCombinations = DefaultMaxCombinations
	}
	return &ReactionMatcher{DB: db, MaxCombinations: maxCombinations}
}

// canonicalForm is a reaction's stoichiometry with every translated compound
// replaced by its canonical species key.
type canonicalForm struct {
	known      model.Stoichiometry
	unresolved []string
	// local coefficient and species slot of each untranslated compound
	pendingCoef map[string]float64
	pendingSlot map[string]int
}

func (m *ReactionMatcher) canonicalize(r *model.Reaction, wm *model.WorkingModel, tm *model.TranslationMap) canonicalForm {
	var comps []string
	for cpd := range r.Stoichiometry {
		if c, ok := wm.Compounds[cpd]; ok {
			comps = append(comps, common.NormalizeCompartment(c.Compartment))
		}
	}
	slots := model.CompartmentSlots(comps)

	f := canonicalForm{
		known:       model.Stoichiometry{},
		pendingCoef: map[string]float64{},
		pendingSlot: map[string]int{},
	}
	for _, cpd := range r.Stoichiometry.Keys() {
		coef := r.Stoichiometry[cpd]
		slot := 0
		if c, ok := wm.Compounds[cpd]; ok {
			slot = slots[common.NormalizeCompartment(c.Compartment)]
		}
		entry, ok := tm.Lookup(model.KindCompound, cpd)
		if !ok {
			f.unresolved = append(f.unresolved, cpd)
			f.pendingCoef[cpd] = coef
			f.pendingSlot[cpd] = slot
			continue
		}
		addCoefficient(f.known, model.SpeciesKey(entry.Canonical, slot), coef)
	}
	return f
}

func addCoefficient(s model.Stoichiometry, key string, coef float64) {
	sum := s[key] + coef
	if math.Abs(sum) <= model.CoefficientTolerance {
		delete(s, key)
		return
	}
	s[key] = sum
}

// Match classifies one reaction. pending lists, for local compounds still
// untranslated, the canonical candidates the compound matcher proposed.
// The reaction and the model are never modified.
func (m *ReactionMatcher) Match(r *model.Reaction, wm *model.WorkingModel, tm *model.TranslationMap, pending map[string][]string) ReactionResult {
	f := m.canonicalize(r, wm, tm)

	if len(f.unresolved) == 0 {
		cands := m.lookup(f.known, r.Direction, model.EvidenceStoichiometry, model.EvidenceInverted)
		return classify(r, cands)
	}

	if res, ok := m.substitute(r, f, pending); ok {
		return res
	}
	return m.overlap(r, f)
}

// lookup finds reference reactions equal to s, or to s negated.
func (m *ReactionMatcher) lookup(s model.Stoichiometry, dir model.Directionality, same, inverted model.EvidenceKind) []model.Candidate {
	var out []model.Candidate
	seen := make(map[string]bool)
	for _, ref := range m.DB.ReactionsByStoichiometry(s) {
		seen[ref.ID] = true
		out = append(out, model.Candidate{
			Canonical:         ref.ID,
			Evidence:          []model.EvidenceKind{same},
			DirectionConflict: !dir.Compatible(ref.Direction),
		})
	}
	for _, ref := range m.DB.ReactionsByStoichiometry(s.Negate()) {
		if seen[ref.ID] {
			continue
		}
		out = append(out, model.Candidate{
			Canonical:         ref.ID,
			Evidence:          []model.EvidenceKind{inverted},
			Reversed:          true,
			DirectionConflict: !dir.Flip().Compatible(ref.Direction),
		})
	}
	return out
}

// classify turns the candidates of a fully translated reaction into an exact
// entry or a proposal.
func classify(r *model.Reaction, cands []model.Candidate) ReactionResult {
	if len(cands) == 0 {
		return ReactionResult{}
	}
	var compatible []model.Candidate
	var filtered []string
	for _, c := range cands {
		if c.DirectionConflict {
			filtered = append(filtered, c.Canonical)
			continue
		}
		compatible = append(compatible, c)
	}
	if len(compatible) == 1 {
		sort.Strings(filtered)
		return ReactionResult{Entry: &model.TranslationEntry{
			Local:     r.ID,
			Canonical: compatible[0].Canonical,
			Tier:      model.TierExact,
			Reversed:  compatible[0].Reversed,
			Source:    string(compatible[0].Evidence[0]),
			Filtered:  filtered,
		}}
	}
	return ReactionResult{Proposal: reactionProposal(r.ID, cands, nil, len(compatible) == 0)}
}

func reactionProposal(local string, cands []model.Candidate, unresolved []string, conflict bool) *model.ProposedMatch {
	sort.Slice(cands, func(i, j int) bool { return cands[i].Canonical < cands[j].Canonical })
	return &model.ProposedMatch{
		Kind:              model.KindReaction,
		Local:             local,
		Candidates:        cands,
		Unresolved:        append([]string(nil), unresolved...),
		DirectionConflict: conflict,
	}
}

// substitute tries every combination of candidate translations for the
// untranslated compounds. It gives up when a compound has no candidates or
// the combinations exceed MaxCombinations.
func (m *ReactionMatcher) substitute(r *model.Reaction, f canonicalForm, pending map[string][]string) (ReactionResult, bool) {
	total := 1
	options := make([][]string, len(f.unresolved))
	for i, cpd := range f.unresolved {
		opts := uniq(pending[cpd])
		if len(opts) == 0 {
			return ReactionResult{}, false
		}
		options[i] = opts
		total *= len(opts)
		if total > m.MaxCombinations {
			return ReactionResult{}, false
		}
	}

	type hit struct {
		cand   model.Candidate
		combos int
	}
	hits := make(map[string]*hit)
	choice := make([]int, len(options))
	for n := 0; n < total; n++ {
		s := f.known.Clone()
		subs := make(map[string]string, len(f.unresolved))
		for i, cpd := range f.unresolved {
			canonical := options[i][choice[i]]
			subs[cpd] = canonical
			addCoefficient(s, model.SpeciesKey(canonical, f.pendingSlot[cpd]), f.pendingCoef[cpd])
		}
		for _, c := range m.lookup(s, r.Direction, model.EvidenceSubstitution, model.EvidenceSubstitution) {
			if h, ok := hits[c.Canonical]; ok {
				h.combos++
				continue
			}
			c.Substitutions = subs
			hits[c.Canonical] = &hit{cand: c, combos: 1}
		}
		// advance the mixed-radix counter
		for i := range choice {
			choice[i]++
			if choice[i] < len(options[i]) {
				break
			}
			choice[i] = 0
		}
	}
	if len(hits) == 0 {
		return ReactionResult{}, false
	}

	cands := make([]model.Candidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, h.cand)
	}
	res := ReactionResult{Proposal: reactionProposal(r.ID, cands, f.unresolved, allConflict(cands))}
	// A candidate that conflicts on direction is no match and names nothing.
	if len(hits) == 1 && hits[cands[0].Canonical].combos == 1 && !cands[0].DirectionConflict {
		res.Hints = cands[0].Substitutions
	}
	return res, true
}

func allConflict(cands []model.Candidate) bool {
	for _, c := range cands {
		if !c.DirectionConflict {
			return false
		}
	}
	return len(cands) > 0
}

// overlap looks for the single reference reaction that agrees with every
// translated compound and has room for exactly the untranslated ones.
func (m *ReactionMatcher) overlap(r *model.Reaction, f canonicalForm) ReactionResult {
	index, ok := m.DB.(biochem.ReactionIndex)
	if !ok || len(f.known) == 0 {
		return ReactionResult{}
	}
	size := len(f.known) + len(f.unresolved)
	anchor, _ := model.SplitSpeciesKey(f.known.Keys()[0])

	var cands []model.Candidate
	var rest model.Stoichiometry
	for _, ref := range index.ReactionsByCompound(anchor) {
		if len(ref.Stoichiometry) != size {
			continue
		}
		for _, reversed := range []bool{false, true} {
			s := ref.Stoichiometry
			dir := r.Direction
			ev := model.EvidenceStoichiometry
			if reversed {
				s = s.Negate()
				dir = dir.Flip()
				ev = model.EvidenceInverted
			}
			leftover, fits := covers(s, f.known)
			if !fits {
				continue
			}
			cands = append(cands, model.Candidate{
				Canonical:         ref.ID,
				Evidence:          []model.EvidenceKind{ev},
				Reversed:          reversed,
				DirectionConflict: !dir.Compatible(ref.Direction),
			})
			rest = leftover
			break
		}
	}
	if len(cands) != 1 {
		return ReactionResult{}
	}

	res := ReactionResult{Proposal: reactionProposal(r.ID, cands, f.unresolved, cands[0].DirectionConflict)}
	// With one unresolved compound the remaining species names it.
	if len(f.unresolved) == 1 && len(rest) == 1 && !cands[0].DirectionConflict {
		cpd := f.unresolved[0]
		key := rest.Keys()[0]
		canonical, slot := model.SplitSpeciesKey(key)
		if slot == f.pendingSlot[cpd] && math.Abs(rest[key]-f.pendingCoef[cpd]) <= model.CoefficientTolerance {
			res.Hints = map[string]string{cpd: canonical}
		}
	}
	return res
}

// covers reports whether s agrees with every species of known and returns
// the species of s that known does not mention.
func covers(s, known model.Stoichiometry) (model.Stoichiometry, bool) {
	for k, v := range known {
		w, ok := s[k]
		if !ok || math.Abs(v-w) > model.CoefficientTolerance {
			return nil, false
		}
	}
	rest := model.Stoichiometry{}
	for k, v := range s {
		if _, ok := known[k]; !ok {
			rest[k] = v
		}
	}
	return rest, true
}
