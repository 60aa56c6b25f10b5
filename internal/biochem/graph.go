package biochem

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/driver"
)

// LoadGraph reads the reference database named db out of the graph store
// and indexes it in memory. Runs never query the graph directly.
func LoadGraph(ctx context.Context, d driver.GraphDriver, db string) (*Memory, error) {
	params := map[string]interface{}{"db": db}

	res, err := d.ExecuteQuery(ctx, driver.ListCompoundsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list compounds: %w", err)
	}
	compounds := make([]model.CanonicalCompound, 0, len(res.Records))
	for _, rec := range res.Records {
		compounds = append(compounds, model.CanonicalCompound{
			ID:      str(rec, "id"),
			Name:    str(rec, "name"),
			Formula: str(rec, "formula"),
			Charge:  int(num(rec, "charge")),
			Aliases: strs(rec, "aliases"),
		})
	}

	res, err = d.ExecuteQuery(ctx, driver.ListReactionReagentsQuery, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	var reactions []model.CanonicalReaction
	index := make(map[string]int)
	for _, rec := range res.Records {
		id := str(rec, "id")
		i, seen := index[id]
		if !seen {
			dir, err := model.ParseDirectionality(str(rec, "direction"))
			if err != nil {
				return nil, fmt.Errorf("reaction %s: %w", id, err)
			}
			i = len(reactions)
			index[id] = i
			reactions = append(reactions, model.CanonicalReaction{
				ID:            id,
				Name:          str(rec, "name"),
				Direction:     dir,
				Stoichiometry: model.Stoichiometry{},
			})
		}
		cpd := str(rec, "compound")
		if cpd == "" {
			continue
		}
		key := model.SpeciesKey(cpd, int(num(rec, "slot")))
		reactions[i].Stoichiometry[key] += num(rec, "coefficient")
	}

	return NewMemory(compounds, reactions)
}

// SaveGraph replaces the named database in the graph store with db.
func SaveGraph(ctx context.Context, d driver.GraphDriver, name string, db *Memory) error {
	if _, err := d.ExecuteQuery(ctx, driver.DeleteBiochemistryQuery, map[string]interface{}{"db": name}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}
	for _, c := range db.Compounds() {
		aliases := c.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		params := map[string]interface{}{
			"id":      c.ID,
			"db":      name,
			"name":    c.Name,
			"formula": c.Formula,
			"charge":  int64(c.Charge),
			"aliases": aliases,
		}
		if _, err := d.ExecuteQuery(ctx, driver.SaveCompoundQuery, params); err != nil {
			return fmt.Errorf("failed to save compound %s: %w", c.ID, err)
		}
	}
	for _, r := range db.Reactions() {
		params := map[string]interface{}{
			"id":        r.ID,
			"db":        name,
			"name":      r.Name,
			"direction": r.Direction.Symbol(),
		}
		if _, err := d.ExecuteQuery(ctx, driver.SaveReactionQuery, params); err != nil {
			return fmt.Errorf("failed to save reaction %s: %w", r.ID, err)
		}
		for _, key := range r.Stoichiometry.Keys() {
			cpd, slot := model.SplitSpeciesKey(key)
			edge := map[string]interface{}{
				"reaction_id": r.ID,
				"compound_id": cpd,
				"db":          name,
				"slot":        int64(slot),
				"coefficient": r.Stoichiometry[key],
			}
			if _, err := d.ExecuteQuery(ctx, driver.SaveReagentEdgeQuery, edge); err != nil {
				return fmt.Errorf("failed to link %s to %s: %w", r.ID, cpd, err)
			}
		}
	}
	return nil
}

func str(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func num(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func strs(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// CountGraph returns the number of compound and reaction nodes stored under
// the named database.
func CountGraph(ctx context.Context, d driver.GraphDriver, name string) (int, error) {
	res, err := d.ExecuteQuery(ctx, driver.CountBiochemistryQuery, map[string]interface{}{"db": name})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", name, err)
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return int(num(res.Records[0], "count")), nil
}
