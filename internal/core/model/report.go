package model

import "time"

type Outcome string

const (
	OutcomeConverged Outcome = "converged"
	OutcomeExhausted Outcome = "exhausted"
)

type TierCounts struct {
	Total     int `json:"total"`
	Exact     int `json:"exact"`
	Probable  int `json:"probable"`
	Ambiguous int `json:"ambiguous"`
	Unmatched int `json:"unmatched"`
}

type RoundLog struct {
	Round        int `json:"round"`
	NewCompounds int `json:"new_compounds"`
	NewReactions int `json:"new_reactions"`
	Proposals    int `json:"proposals"`
	Hints        int `json:"hints"`
}

// ComparisonReport summarises a standardization run.
type ComparisonReport struct {
	RunID              string     `json:"run_id"`
	Compounds          TierCounts `json:"compounds"`
	Reactions          TierCounts `json:"reactions"`
	Rounds             int        `json:"rounds"`
	MaxIterations      int        `json:"max_iterations"`
	Outcome            Outcome    `json:"outcome"`
	CompartmentsMerged int        `json:"compartments_merged"`
	ReactionsRemoved   int        `json:"reactions_removed"`
	DirectionConflicts int        `json:"direction_conflicts"`
	Log                []RoundLog `json:"log"`
	StartedAt          time.Time  `json:"started_at"`
	FinishedAt         time.Time  `json:"finished_at"`
}
