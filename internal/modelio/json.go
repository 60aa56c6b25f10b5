// Package modelio reads and writes working models as COBRA-style JSON.
package modelio

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/agenthands/modelstd/internal/core/model"
)

const fluxBound = 1000

type document struct {
	ID           string            `json:"id"`
	Compartments map[string]string `json:"compartments,omitempty"`
	Metabolites  []metabolite      `json:"metabolites"`
	Reactions    []reaction        `json:"reactions"`
}

type metabolite struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name,omitempty"`
	Formula     string                     `json:"formula,omitempty"`
	Charge      float64                    `json:"charge"`
	Compartment string                     `json:"compartment,omitempty"`
	Annotation  map[string]json.RawMessage `json:"annotation,omitempty"`
	Aliases     []string                   `json:"aliases,omitempty"`
}

type reaction struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Metabolites map[string]float64 `json:"metabolites"`
	LowerBound  *float64           `json:"lower_bound,omitempty"`
	UpperBound  *float64           `json:"upper_bound,omitempty"`
	Direction   string             `json:"direction,omitempty"`
}

// Decode reads a model. Reaction directionality comes from an explicit
// "direction" field, else from the flux bounds. Annotation values become
// compound aliases.
func Decode(r io.Reader) (*model.WorkingModel, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	wm := model.NewWorkingModel(doc.ID)
	for _, m := range doc.Metabolites {
		if m.Charge != math.Trunc(m.Charge) {
			return nil, fmt.Errorf("metabolite %s: fractional charge %v", m.ID, m.Charge)
		}
		aliases := append(append([]string(nil), m.Aliases...), annotationAliases(m.Annotation)...)
		c, err := model.NewCompound(m.ID, m.Formula, int(m.Charge), m.Compartment, dedupe(aliases)...)
		if err != nil {
			return nil, err
		}
		c.Name = m.Name
		if err := wm.AddCompound(c); err != nil {
			return nil, err
		}
	}
	for _, rx := range doc.Reactions {
		dir, err := direction(rx)
		if err != nil {
			return nil, err
		}
		rxn, err := model.NewReaction(rx.ID, rx.Metabolites, dir)
		if err != nil {
			return nil, err
		}
		rxn.Name = rx.Name
		if err := wm.AddReaction(rxn); err != nil {
			return nil, err
		}
	}
	return wm, nil
}

func direction(r reaction) (model.Directionality, error) {
	if r.Direction != "" {
		d, err := model.ParseDirectionality(r.Direction)
		if err != nil {
			return "", fmt.Errorf("reaction %s: %w", r.ID, err)
		}
		return d, nil
	}
	if r.LowerBound == nil && r.UpperBound == nil {
		return model.Uncertain, nil
	}
	lower, upper := -float64(fluxBound), float64(fluxBound)
	if r.LowerBound != nil {
		lower = *r.LowerBound
	}
	if r.UpperBound != nil {
		upper = *r.UpperBound
	}
	return model.DirectionalityFromBounds(lower, upper), nil
}

// annotationAliases flattens annotation values, which are either a string or
// a list of strings. Other shapes are ignored.
func annotationAliases(annotation map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(annotation))
	for k := range annotation {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		var one string
		if err := json.Unmarshal(annotation[k], &one); err == nil {
			out = append(out, one)
			continue
		}
		var many []string
		if err := json.Unmarshal(annotation[k], &many); err == nil {
			out = append(out, many...)
		}
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func Load(path string) (*model.WorkingModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes wm with entities ordered by identifier.
func Encode(w io.Writer, wm *model.WorkingModel) error {
	doc := document{ID: wm.ID}
	for _, id := range wm.CompoundIDs() {
		c := wm.Compounds[id]
		doc.Metabolites = append(doc.Metabolites, metabolite{
			ID:          c.ID,
			Name:        c.Name,
			Formula:     c.Formula,
			Charge:      float64(c.Charge),
			Compartment: c.Compartment,
			Aliases:     c.Aliases,
		})
	}
	for _, id := range wm.ReactionIDs() {
		r := wm.Reactions[id]
		lower, upper := bounds(r.Direction)
		doc.Reactions = append(doc.Reactions, reaction{
			ID:          r.ID,
			Name:        r.Name,
			Metabolites: r.Stoichiometry,
			LowerBound:  &lower,
			UpperBound:  &upper,
			Direction:   r.Direction.Symbol(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

func bounds(d model.Directionality) (float64, float64) {
	switch d {
	case model.Forward:
		return 0, fluxBound
	case model.Reverse:
		return -fluxBound, 0
	case model.Blocked:
		return 0, 0
	}
	return -fluxBound, fluxBound
}

func Save(path string, wm *model.WorkingModel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, wm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON writes any value as indented JSON, for reports and proposals.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
