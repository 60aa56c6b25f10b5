package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type Compound struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Formula     string   `json:"formula,omitempty"`
	Charge      int      `json:"charge"`
	Compartment string   `json:"compartment"`
	Aliases     []string `json:"aliases,omitempty"`
}

func NewCompound(id, formula string, charge int, compartment string, aliases ...string) (*Compound, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("compound id must not be empty")
	}
	if compartment == "" {
		compartment = "c"
	}
	return &Compound{
		ID:          id,
		Formula:     strings.TrimSpace(formula),
		Charge:      charge,
		Compartment: compartment,
		Aliases:     aliases,
	}, nil
}

type Reaction struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Stoichiometry Stoichiometry  `json:"stoichiometry"`
	Direction     Directionality `json:"direction"`
	Compartments  []string       `json:"compartments,omitempty"`
}

func NewReaction(id string, stoich Stoichiometry, dir Directionality) (*Reaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("reaction id must not be empty")
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("reaction %s: invalid directionality %q", id, dir)
	}
	for cpd, coef := range stoich {
		if coef == 0 || math.IsNaN(coef) || math.IsInf(coef, 0) {
			return nil, fmt.Errorf("reaction %s: invalid coefficient %v for %s", id, coef, cpd)
		}
	}
	return &Reaction{ID: id, Stoichiometry: stoich.Clone(), Direction: dir}, nil
}

// CanonicalCompound is a read-only record of the reference database.
type CanonicalCompound struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Formula string   `json:"formula,omitempty"`
	Charge  int      `json:"charge"`
	Aliases []string `json:"aliases,omitempty"`
}

// CanonicalReaction stoichiometry is keyed by SpeciesKey.
type CanonicalReaction struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Stoichiometry Stoichiometry  `json:"stoichiometry"`
	Direction     Directionality `json:"direction"`
}

// WorkingModel is owned by a single standardization run.
type WorkingModel struct {
	ID        string               `json:"id,omitempty"`
	Compounds map[string]*Compound `json:"compounds"`
	Reactions map[string]*Reaction `json:"reactions"`
}

func NewWorkingModel(id string) *WorkingModel {
	return &WorkingModel{
		ID:        id,
		Compounds: make(map[string]*Compound),
		Reactions: make(map[string]*Reaction),
	}
}

func (m *WorkingModel) AddCompound(c *Compound) error {
	if _, exists := m.Compounds[c.ID]; exists {
		return &StructuralError{Entity: c.ID, Reason: "duplicate compound identifier"}
	}
	m.Compounds[c.ID] = c
	return nil
}

func (m *WorkingModel) AddReaction(r *Reaction) error {
	if _, exists := m.Reactions[r.ID]; exists {
		return &StructuralError{Entity: r.ID, Reason: "duplicate reaction identifier"}
	}
	for cpd := range r.Stoichiometry {
		if _, ok := m.Compounds[cpd]; !ok {
			return &StructuralError{Entity: r.ID, Reason: fmt.Sprintf("references unknown compound %s", cpd)}
		}
	}
	m.Reactions[r.ID] = r
	m.syncCompartments(r)
	return nil
}

// Validate checks that every stoichiometry key names a compound of the model.
func (m *WorkingModel) Validate() error {
	for _, rid := range m.ReactionIDs() {
		r := m.Reactions[rid]
		if !r.Direction.Valid() {
			return &StructuralError{Entity: rid, Reason: fmt.Sprintf("invalid directionality %q", r.Direction)}
		}
		for _, cpd := range r.Stoichiometry.Keys() {
			if _, ok := m.Compounds[cpd]; !ok {
				return &StructuralError{Entity: rid, Reason: fmt.Sprintf("references unknown compound %s", cpd)}
			}
		}
	}
	return nil
}

func (m *WorkingModel) CompoundIDs() []string {
	ids := make([]string, 0, len(m.Compounds))
	for id := range m.Compounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *WorkingModel) ReactionIDs() []string {
	ids := make([]string, 0, len(m.Reactions))
	for id := range m.Reactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SyncCompartments recomputes every reaction's compartment set from its compounds.
func (m *WorkingModel) SyncCompartments() {
	for _, r := range m.Reactions {
		m.syncCompartments(r)
	}
}

func (m *WorkingModel) syncCompartments(r *Reaction) {
	seen := make(map[string]bool)
	var comps []string
	for cpd := range r.Stoichiometry {
		c, ok := m.Compounds[cpd]
		if !ok || seen[c.Compartment] {
			continue
		}
		seen[c.Compartment] = true
		comps = append(comps, c.Compartment)
	}
	sort.Strings(comps)
	r.Compartments = comps
}

// Clone returns a deep copy.
func (m *WorkingModel) Clone() *WorkingModel {
	out := NewWorkingModel(m.ID)
	for id, c := range m.Compounds {
		cp := *c
		cp.Aliases = append([]string(nil), c.Aliases...)
		out.Compounds[id] = &cp
	}
	for id, r := range m.Reactions {
		rp := *r
		rp.Stoichiometry = r.Stoichiometry.Clone()
		rp.Compartments = append([]string(nil), r.Compartments...)
		out.Reactions[id] = &rp
	}
	return out
}
