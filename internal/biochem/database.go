// Package biochem holds the read-only reference biochemistry that local
// models are translated into.
package biochem

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
)

// ReferenceDatabase answers the three lookups the matchers need. Results are
// ordered by canonical identifier.
type ReferenceDatabase interface {
	CompoundsByFormulaCharge(formula string, charge int) []model.CanonicalCompound
	CompoundsByAlias(alias string) []model.CanonicalCompound
	ReactionsByStoichiometry(stoich model.Stoichiometry) []model.CanonicalReaction
}

// ReactionIndex is implemented by databases that can list the reactions a
// canonical compound takes part in.
type ReactionIndex interface {
	ReactionsByCompound(compound string) []model.CanonicalReaction
}

// Memory is an in-memory ReferenceDatabase. It is safe for concurrent reads
// once built.
type Memory struct {
	compounds map[string]model.CanonicalCompound
	reactions map[string]model.CanonicalReaction

	byFormula   map[string][]string
	byAlias     map[string][]string
	bySignature map[string][]string
	byCompound  map[string][]string
}

func NewMemory(compounds []model.CanonicalCompound, reactions []model.CanonicalReaction) (*Memory, error) {
	m := &Memory{
		compounds:   make(map[string]model.CanonicalCompound, len(compounds)),
		reactions:   make(map[string]model.CanonicalReaction, len(reactions)),
		byFormula:   make(map[string][]string),
		byAlias:     make(map[string][]string),
		bySignature: make(map[string][]string),
		byCompound:  make(map[string][]string),
	}
	for _, c := range compounds {
		if c.ID == "" {
			return nil, fmt.Errorf("canonical compound without id")
		}
		if _, dup := m.compounds[c.ID]; dup {
			return nil, fmt.Errorf("duplicate canonical compound %s", c.ID)
		}
		m.compounds[c.ID] = c
		if c.Formula != "" {
			key := formulaKey(c.Formula, c.Charge)
			m.byFormula[key] = append(m.byFormula[key], c.ID)
		}
		for _, alias := range compoundAliases(c) {
			m.byAlias[alias] = appendUnique(m.byAlias[alias], c.ID)
		}
	}
	for _, r := range reactions {
		if r.ID == "" {
			return nil, fmt.Errorf("canonical reaction without id")
		}
		if _, dup := m.reactions[r.ID]; dup {
			return nil, fmt.Errorf("duplicate canonical reaction %s", r.ID)
		}
		if r.Direction == "" {
			r.Direction = model.Reversible
		}
		m.reactions[r.ID] = r
		sig := r.Stoichiometry.Signature()
		m.bySignature[sig] = append(m.bySignature[sig], r.ID)
		for key := range r.Stoichiometry {
			cpd, _ := model.SplitSpeciesKey(key)
			m.byCompound[cpd] = appendUnique(m.byCompound[cpd], r.ID)
		}
	}
	for _, index := range []map[string][]string{m.byFormula, m.byAlias, m.bySignature, m.byCompound} {
		for _, ids := range index {
			sort.Strings(ids)
		}
	}
	return m, nil
}

func formulaKey(formula string, charge int) string {
	return common.CanonicalFormula(formula) + "|" + strconv.Itoa(charge)
}

// compoundAliases lists the normalised lookup keys of a canonical compound:
// its own identifier, its name and every alias.
func compoundAliases(c model.CanonicalCompound) []string {
	raw := append([]string{c.ID, c.Name}, c.Aliases...)
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if n := common.NormalizeAlias(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (m *Memory) CompoundsByFormulaCharge(formula string, charge int) []model.CanonicalCompound {
	if formula == "" {
		return nil
	}
	return m.compoundList(m.byFormula[formulaKey(formula, charge)])
}

func (m *Memory) CompoundsByAlias(alias string) []model.CanonicalCompound {
	n := common.NormalizeAlias(alias)
	if n == "" {
		return nil
	}
	return m.compoundList(m.byAlias[n])
}

func (m *Memory) ReactionsByStoichiometry(stoich model.Stoichiometry) []model.CanonicalReaction {
	if len(stoich) == 0 {
		return nil
	}
	return m.reactionList(m.bySignature[stoich.Signature()])
}

func (m *Memory) ReactionsByCompound(compound string) []model.CanonicalReaction {
	return m.reactionList(m.byCompound[compound])
}

func (m *Memory) Compound(id string) (model.CanonicalCompound, bool) {
	c, ok := m.compounds[id]
	return c, ok
}

func (m *Memory) Reaction(id string) (model.CanonicalReaction, bool) {
	r, ok := m.reactions[id]
	return r, ok
}

// Compounds returns every compound ordered by identifier.
func (m *Memory) Compounds() []model.CanonicalCompound {
	ids := make([]string, 0, len(m.compounds))
	for id := range m.compounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return m.compoundList(ids)
}

// Reactions returns every reaction ordered by identifier.
func (m *Memory) Reactions() []model.CanonicalReaction {
	ids := make([]string, 0, len(m.reactions))
	for id := range m.reactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return m.reactionList(ids)
}

func (m *Memory) Size() (compounds, reactions int) {
	return len(m.compounds), len(m.reactions)
}

func (m *Memory) compoundList(ids []string) []model.CanonicalCompound {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.CanonicalCompound, len(ids))
	for i, id := range ids {
		out[i] = m.compounds[id]
	}
	return out
}

func (m *Memory) reactionList(ids []string) []model.CanonicalReaction {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.CanonicalReaction, len(ids))
	for i, id := range ids {
		out[i] = m.reactions[id]
	}
	return out
}
