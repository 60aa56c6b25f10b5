package core

import (
	"sync/atomic"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core/model"
)

// CountingDB wraps a reference database and counts lookups.
type CountingDB struct {
	DB      *biochem.Memory
	Lookups atomic.Int64
}

func (c *CountingDB) CompoundsByFormulaCharge(formula string, charge int) []model.CanonicalCompound {
	c.Lookups.Add(1)
	return c.DB.CompoundsByFormulaCharge(formula, charge)
}

func (c *CountingDB) CompoundsByAlias(alias string) []model.CanonicalCompound {
	c.Lookups.Add(1)
	return c.DB.CompoundsByAlias(alias)
}

func (c *CountingDB) ReactionsByStoichiometry(stoich model.Stoichiometry) []model.CanonicalReaction {
	c.Lookups.Add(1)
	return c.DB.ReactionsByStoichiometry(stoich)
}
