package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core/model"
)

func newDB(t *testing.T, reactions ...model.CanonicalReaction) *biochem.Memory {
	t.Helper()
	db, err := biochem.NewMemory([]model.CanonicalCompound{
		{ID: "cpd00027", Name: "D-Glucose", Formula: "C6H12O6", Aliases: []string{"glc__D"}},
		{ID: "cpd00108", Name: "Galactose", Formula: "C6H12O6", Aliases: []string{"gal"}},
		{ID: "cpd00020", Name: "Pyruvate", Formula: "C3H4O3", Charge: -1, Aliases: []string{"pyr"}},
		{ID: "cpd00067", Name: "H+", Formula: "H", Charge: 1, Aliases: []string{"h"}},
	}, reactions)
	require.NoError(t, err)
	return db
}

func compound(t *testing.T, id, formula string, charge int, aliases ...string) *model.Compound {
	t.Helper()
	c, err := model.NewCompound(id, formula, charge, "c", aliases...)
	require.NoError(t, err)
	return c
}

func TestCompoundExactByFormula(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "cpdB", "C3H4O3", -1), nil)
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Proposal)
	assert.Equal(t, "cpd00020", res.Entry.Canonical)
	assert.Equal(t, model.TierExact, res.Entry.Tier)
}

func TestCompoundFormulaTieBrokenByAlias(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "glc", "C6H12O6", 0, "glc__D"), nil)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "cpd00027", res.Entry.Canonical)
	assert.Equal(t, model.TierProbable, res.Entry.Tier)
	assert.Equal(t, string(model.EvidenceFormulaAndAlias), res.Entry.Source)
}

func TestCompoundAmbiguousFormula(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "cpdC", "C6H12O6", 0), nil)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, model.KindCompound, res.Proposal.Kind)
	assert.Equal(t, []string{"cpd00027", "cpd00108"}, res.Proposal.CandidateIDs())
	for _, c := range res.Proposal.Candidates {
		assert.Equal(t, []model.EvidenceKind{model.EvidenceFormula}, c.Evidence)
	}
}

func TestCompoundAliasOnly(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	// Charge differs from the reference, the alias still resolves it.
	res := m.Match(compound(t, "pyr_c", "C3H3O3", -1), nil)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "cpd00020", res.Entry.Canonical)
	assert.Equal(t, model.TierProbable, res.Entry.Tier)
	assert.Equal(t, string(model.EvidenceAlias), res.Entry.Source)
}

func TestCompoundFormulaAndAliasDisagree(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "x", "C3H4O3", -1, "gal"), nil)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	require.Len(t, res.Proposal.Candidates, 2)
	assert.Equal(t, "cpd00020", res.Proposal.Candidates[0].Canonical)
	assert.Equal(t, []model.EvidenceKind{model.EvidenceFormula}, res.Proposal.Candidates[0].Evidence)
	assert.Equal(t, "cpd00108", res.Proposal.Candidates[1].Canonical)
	assert.Equal(t, []model.EvidenceKind{model.EvidenceAlias}, res.Proposal.Candidates[1].Evidence)
}

func TestCompoundMiss(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "mystery", "C99", 0), nil)
	assert.Nil(t, res.Entry)
	assert.Nil(t, res.Proposal)
}

func TestCompoundHints(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	res := m.Match(compound(t, "cpdC", "C6H12O6", 0), []string{"cpd00108", "cpd00108"})
	require.NotNil(t, res.Entry)
	assert.Equal(t, "cpd00108", res.Entry.Canonical)
	assert.Equal(t, model.TierProbable, res.Entry.Tier)
	assert.Equal(t, string(model.EvidenceReactionContext), res.Entry.Source)

	// Conflicting hints leave the tie in place.
	res = m.Match(compound(t, "cpdC", "C6H12O6", 0), []string{"cpd00108", "cpd00027"})
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)

	// A hint without any formula or alias support is only proposed.
	res = m.Match(compound(t, "mystery", "C99", 0), []string{"cpd00067"})
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, []string{"cpd00067"}, res.Proposal.CandidateIDs())
	assert.Equal(t, []model.EvidenceKind{model.EvidenceReactionContext}, res.Proposal.Candidates[0].Evidence)
}

func TestCompoundCanonicalIdentifier(t *testing.T) {
	m := NewCompoundMatcher(newDB(t))

	for _, id := range []string{"cpd00108", "cpd00108_c0", "cpd00108[c]"} {
		res := m.Match(compound(t, id, "C6H12O6", 0), nil)
		require.NotNil(t, res.Entry, id)
		assert.Equal(t, "cpd00108", res.Entry.Canonical)
	}
}

func scenarioModel(t *testing.T, dir model.Directionality) *model.WorkingModel {
	t.Helper()
	wm := model.NewWorkingModel("scenario")
	require.NoError(t, wm.AddCompound(compound(t, "cpdA", "C6H12O6", 0)))
	require.NoError(t, wm.AddCompound(compound(t, "cpdB", "C3H4O3", -1)))
	rxn, err := model.NewReaction("rxnX", model.Stoichiometry{"cpdA": -1, "cpdB": 2}, dir)
	require.NoError(t, err)
	require.NoError(t, wm.AddReaction(rxn))
	return wm
}

func translated(pairs ...string) *model.TranslationMap {
	tm := model.NewTranslationMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		tm.Add(model.KindCompound, model.TranslationEntry{Local: pairs[i], Canonical: pairs[i+1], Tier: model.TierExact})
	}
	return tm
}

func TestReactionPerfectMatch(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Forward,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	require.NotNil(t, res.Entry)
	assert.Nil(t, res.Proposal)
	assert.Equal(t, "rxn00145", res.Entry.Canonical)
	assert.Equal(t, model.TierExact, res.Entry.Tier)
	assert.False(t, res.Entry.Reversed)
}

func TestReactionInvertedMatch(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": 1, "cpd00020": -2}, Direction: model.Reverse,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "rxn00145", res.Entry.Canonical)
	assert.True(t, res.Entry.Reversed)
	assert.Equal(t, "forward", string(wm.Reactions["rxnX"].Direction), "matcher must not modify the model")
}

func TestReactionDirectionalSymmetry(t *testing.T) {
	refs := []model.CanonicalReaction{
		{ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Forward},
		{ID: "rxn00146", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00067": 1}, Direction: model.Reversible},
	}
	db := newDB(t, refs...)
	m := NewReactionMatcher(db, 0)
	tm := translated("cpdA", "cpd00027", "cpdB", "cpd00020")

	for _, dir := range []model.Directionality{model.Forward, model.Reversible, model.Uncertain} {
		wm := scenarioModel(t, dir)
		orig := m.Match(wm.Reactions["rxnX"], wm, tm, nil)

		flipped := wm.Clone()
		r := flipped.Reactions["rxnX"]
		r.Stoichiometry = r.Stoichiometry.Negate()
		r.Direction = r.Direction.Flip()
		inv := m.Match(r, flipped, tm, nil)

		require.NotNil(t, orig.Entry, dir)
		require.NotNil(t, inv.Entry, dir)
		assert.Equal(t, orig.Entry.Canonical, inv.Entry.Canonical)
		assert.NotEqual(t, orig.Entry.Reversed, inv.Entry.Reversed)
	}
}

func TestReactionDirectionConflict(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Reverse,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	assert.True(t, res.Proposal.DirectionConflict)
	assert.True(t, res.Proposal.Candidates[0].DirectionConflict)
}

func TestReactionFilteredCandidatesRecorded(t *testing.T) {
	db := newDB(t,
		model.CanonicalReaction{ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Forward},
		model.CanonicalReaction{ID: "rxn90001", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Reverse},
	)
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	assert.Nil(t, res.Proposal)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "rxn00145", res.Entry.Canonical)
	assert.Equal(t, model.TierExact, res.Entry.Tier)
	assert.Equal(t, []string{"rxn90001"}, res.Entry.Filtered)
}

func TestReactionMultipleCandidates(t *testing.T) {
	db := newDB(t,
		model.CanonicalReaction{ID: "rxn00145", Stoichiometry: model.Stoichiometry{"cpd00027": -1, "cpd00020": 2}, Direction: model.Forward},
		model.CanonicalReaction{ID: "rxn90000", Stoichiometry: model.Stoichiometry{"cpd00027": 1, "cpd00020": -2}, Direction: model.Reversible},
	)
	wm := scenarioModel(t, model.Reversible)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, []string{"rxn00145", "rxn90000"}, res.Proposal.CandidateIDs())
	assert.False(t, res.Proposal.DirectionConflict)
}

func TestReactionMiss(t *testing.T) {
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(newDB(t), 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdA", "cpd00027", "cpdB", "cpd00020"), nil)
	assert.Nil(t, res.Entry)
	assert.Nil(t, res.Proposal)
	assert.Empty(t, res.Hints)
}

func TestReactionSubstitutionHints(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00200", Stoichiometry: model.Stoichiometry{"cpd00108": -1, "cpd00020": 2}, Direction: model.Forward,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	pending := map[string][]string{"cpdA": {"cpd00027", "cpd00108"}}
	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdB", "cpd00020"), pending)
	assert.Nil(t, res.Entry)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, []string{"rxn00200"}, res.Proposal.CandidateIDs())
	assert.Equal(t, []string{"cpdA"}, res.Proposal.Unresolved)
	assert.Equal(t, map[string]string{"cpdA": "cpd00108"}, res.Hints)
	assert.Equal(t, []model.EvidenceKind{model.EvidenceSubstitution}, res.Proposal.Candidates[0].Evidence)
}

func TestReactionSubstitutionBudget(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00200", Stoichiometry: model.Stoichiometry{"cpd00108": -1, "cpd00020": 2}, Direction: model.Forward,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 1)

	// Two combinations exceed the budget; the overlap search still finds
	// the reaction and names the missing compound.
	pending := map[string][]string{"cpdA": {"cpd00027", "cpd00108"}}
	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdB", "cpd00020"), pending)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, []string{"rxn00200"}, res.Proposal.CandidateIDs())
	assert.Equal(t, map[string]string{"cpdA": "cpd00108"}, res.Hints)
}

func TestReactionOverlapWithoutCandidates(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00300", Stoichiometry: model.Stoichiometry{"cpd00067": 1, "cpd00020": -2}, Direction: model.Reversible,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdB", "cpd00020"), nil)
	require.NotNil(t, res.Proposal)
	assert.True(t, res.Proposal.Candidates[0].Reversed)
	assert.Equal(t, map[string]string{"cpdA": "cpd00067"}, res.Hints)
}

func TestReactionSubstitutionDirectionConflictGivesNoHints(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00200", Stoichiometry: model.Stoichiometry{"cpd00108": -1, "cpd00020": 2}, Direction: model.Reverse,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	pending := map[string][]string{"cpdA": {"cpd00027", "cpd00108"}}
	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdB", "cpd00020"), pending)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, []string{"rxn00200"}, res.Proposal.CandidateIDs())
	assert.True(t, res.Proposal.DirectionConflict)
	assert.Empty(t, res.Hints)
}

func TestReactionOverlapDirectionConflictGivesNoHints(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn00300", Stoichiometry: model.Stoichiometry{"cpd00067": 1, "cpd00020": -2}, Direction: model.Forward,
	})
	wm := scenarioModel(t, model.Forward)
	m := NewReactionMatcher(db, 0)

	res := m.Match(wm.Reactions["rxnX"], wm, translated("cpdB", "cpd00020"), nil)
	require.NotNil(t, res.Proposal)
	assert.True(t, res.Proposal.Candidates[0].Reversed)
	assert.True(t, res.Proposal.DirectionConflict)
	assert.Empty(t, res.Hints)
}

func TestReactionTransportSlots(t *testing.T) {
	db := newDB(t, model.CanonicalReaction{
		ID: "rxn05573", Stoichiometry: model.Stoichiometry{"cpd00027[1]": -1, "cpd00027": 1}, Direction: model.Reversible,
	})
	wm := model.NewWorkingModel("transport")
	in, err := model.NewCompound("glc_c", "C6H12O6", 0, "c")
	require.NoError(t, err)
	out, err := model.NewCompound("glc_e", "C6H12O6", 0, "e")
	require.NoError(t, err)
	require.NoError(t, wm.AddCompound(in))
	require.NoError(t, wm.AddCompound(out))
	rxn, err := model.NewReaction("GLCt", model.Stoichiometry{"glc_e": -1, "glc_c": 1}, model.Forward)
	require.NoError(t, err)
	require.NoError(t, wm.AddReaction(rxn))

	m := NewReactionMatcher(db, 0)
	res := m.Match(rxn, wm, translated("glc_c", "cpd00027", "glc_e", "cpd00027"), nil)
	require.NotNil(t, res.Entry)
	assert.Equal(t, "rxn05573", res.Entry.Canonical)
}
