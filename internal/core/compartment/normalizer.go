// Package compartment collapses compartments of a working model before
// matching, so that compounds which differ only by a dropped compartment
// become one entry.
package compartment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
)

// DefaultSynonyms folds the periplasm into the extracellular space.
var DefaultSynonyms = map[string]string{
	"periplasm": "e",
	"p":         "e",
}

type Normalizer struct {
	// Synonyms maps a compartment name or code to the target code.
	Synonyms map[string]string
	Logger   *zap.Logger
}

type Result struct {
	Merged           int      `json:"merged"`
	Relabelled       int      `json:"relabelled"`
	ReactionsRemoved []string `json:"reactions_removed,omitempty"`
}

func NewNormalizer(synonyms map[string]string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		t := common.NormalizeCompartment(v)
		table[strings.ToLower(strings.TrimSpace(k))] = t
		table[common.NormalizeCompartment(k)] = t
	}
	return &Normalizer{Synonyms: table, Logger: logger}
}

func (n *Normalizer) target(compartment string) (string, bool) {
	raw := strings.ToLower(strings.TrimSpace(compartment))
	code := common.NormalizeCompartment(compartment)
	t, ok := n.Synonyms[raw]
	if !ok {
		t, ok = n.Synonyms[code]
	}
	if !ok || t == code {
		return "", false
	}
	return t, true
}

// Normalize rewrites m in place. The model is left untouched when an error
// is returned.
func (n *Normalizer) Normalize(m *model.WorkingModel) (Result, error) {
	var res Result
	if len(n.Synonyms) == 0 {
		return res, nil
	}
	work := m.Clone()

	// base identifier + compartment code -> compound id
	index := make(map[string]string, len(work.Compounds))
	key := func(base, comp string) string { return base + "\x00" + comp }
	for _, id := range work.CompoundIDs() {
		c := work.Compounds[id]
		index[key(common.ParseID(id).Base, common.NormalizeCompartment(c.Compartment))] = id
	}

	for _, id := range work.CompoundIDs() {
		c := work.Compounds[id]
		target, ok := n.target(c.Compartment)
		if !ok {
			continue
		}
		oldComp := common.NormalizeCompartment(c.Compartment)
		lid := common.ParseID(id)
		delete(index, key(lid.Base, oldComp))

		if partnerID, found := index[key(lid.Base, target)]; found {
			partner := work.Compounds[partnerID]
			if sameSpecies(c, partner) {
				if err := renameInReactions(work, id, partnerID); err != nil {
					return Result{}, err
				}
				partner.Aliases = mergeAliases(partner.Aliases, c.Aliases)
				delete(work.Compounds, id)
				res.Merged++
				n.Logger.Debug("merged compound",
					zap.String("compound", id),
					zap.String("into", partnerID))
				continue
			}
			// Distinct species: keep the old compartment in the identifier.
			suffixed := common.LocalID{Base: lid.Base + "_" + oldComp, Index: lid.Index, Notation: lid.Notation}
			newID := id
			if lid.Notation != common.NotationNone {
				newID = suffixed.WithCompartment(target)
			}
			if err := n.relabel(work, c, newID, target); err != nil {
				return Result{}, err
			}
			res.Relabelled++
			continue
		}

		newID := lid.WithCompartment(target)
		if _, taken := work.Compounds[newID]; taken && newID != id {
			newID = id
		}
		if err := n.relabel(work, c, newID, target); err != nil {
			return Result{}, err
		}
		index[key(lid.Base, target)] = newID
		res.Relabelled++
	}

	for _, rid := range work.ReactionIDs() {
		if len(work.Reactions[rid].Stoichiometry) == 0 {
			delete(work.Reactions, rid)
			res.ReactionsRemoved = append(res.ReactionsRemoved, rid)
		}
	}
	work.SyncCompartments()

	m.Compounds = work.Compounds
	m.Reactions = work.Reactions

	n.Logger.Info("compartments normalized",
		zap.Int("merged", res.Merged),
		zap.Int("relabelled", res.Relabelled),
		zap.Int("reactions_removed", len(res.ReactionsRemoved)))
	return res, nil
}

func (n *Normalizer) relabel(work *model.WorkingModel, c *model.Compound, newID, target string) error {
	oldID := c.ID
	c.Compartment = target
	if newID == oldID {
		return nil
	}
	if _, taken := work.Compounds[newID]; taken {
		return &model.StructuralError{Entity: oldID, Reason: fmt.Sprintf("relabelled identifier %s already exists", newID)}
	}
	if err := renameInReactions(work, oldID, newID); err != nil {
		return err
	}
	delete(work.Compounds, oldID)
	c.ID = newID
	work.Compounds[newID] = c
	n.Logger.Debug("relabelled compound", zap.String("compound", oldID), zap.String("as", newID))
	return nil
}

// renameInReactions moves every coefficient of from onto to. Coefficients on
// the same side are summed. Opposite sides must cancel exactly.
func renameInReactions(work *model.WorkingModel, from, to string) error {
	for _, rid := range work.ReactionIDs() {
		st := work.Reactions[rid].Stoichiometry
		coef, ok := st[from]
		if !ok {
			continue
		}
		delete(st, from)
		existing, clash := st[to]
		if !clash {
			st[to] = coef
			continue
		}
		sum := existing + coef
		switch {
		case math.Signbit(existing) == math.Signbit(coef):
			st[to] = sum
		case math.Abs(sum) <= model.CoefficientTolerance:
			delete(st, to)
		default:
			return &model.StructuralError{
				Entity: rid,
				Reason: fmt.Sprintf("merging %s into %s leaves coefficient %g with inconsistent sign", from, to, sum),
			}
		}
	}
	return nil
}

func sameSpecies(a, b *model.Compound) bool {
	if a.Formula == "" || b.Formula == "" {
		return true
	}
	return common.CanonicalFormula(a.Formula) == common.CanonicalFormula(b.Formula) && a.Charge == b.Charge
}

func mergeAliases(into, from []string) []string {
	seen := make(map[string]bool, len(into))
	for _, a := range into {
		seen[a] = true
	}
	for _, a := range from {
		if !seen[a] {
			seen[a] = true
			into = append(into, a)
		}
	}
	sort.Strings(into)
	return into
}
