package model

type EvidenceKind string

const (
	EvidenceFormula         EvidenceKind = "formula-only"
	EvidenceAlias           EvidenceKind = "alias-only"
	EvidenceFormulaAndAlias EvidenceKind = "formula+alias"
	EvidenceReactionContext EvidenceKind = "reaction-context"
	EvidenceStoichiometry   EvidenceKind = "stoichiometry"
	EvidenceInverted        EvidenceKind = "stoichiometry-inverted"
	EvidenceSubstitution    EvidenceKind = "stoichiometry-substituted"
)

type Candidate struct {
	Canonical string         `json:"canonical"`
	Evidence  []EvidenceKind `json:"evidence"`
	Reversed  bool           `json:"reversed,omitempty"`
	// Substitutions lists the compound translations a reaction candidate
	// depends on, keyed by local compound identifier.
	Substitutions     map[string]string `json:"substitutions,omitempty"`
	DirectionConflict bool              `json:"direction_conflict,omitempty"`
}

// Advice is an advisory opinion from an external reviewer model.
type Advice struct {
	Recommended string  `json:"recommended"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale,omitempty"`
}

// ProposedMatch is an unresolved candidate set surfaced for review.
type ProposedMatch struct {
	Kind              Kind        `json:"kind"`
	Local             string      `json:"local"`
	Candidates        []Candidate `json:"candidates"`
	Unresolved        []string    `json:"unresolved,omitempty"`
	DirectionConflict bool        `json:"direction_conflict,omitempty"`
	Round             int         `json:"round"`
	Advice            *Advice     `json:"advice,omitempty"`
}

func (p ProposedMatch) CandidateIDs() []string {
	ids := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		ids[i] = c.Canonical
	}
	return ids
}
