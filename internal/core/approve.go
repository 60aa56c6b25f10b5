package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/core/review"
)

// Approval is a reviewer's choice of one candidate of a proposal.
type Approval struct {
	Kind      model.Kind `json:"kind"`
	Local     string     `json:"local"`
	Canonical string     `json:"canonical"`
}

// Approve promotes the chosen candidates into res.Translations and applies
// the map again to the normalized model. res is left unchanged on error.
func (s *Standardizer) Approve(res *Result, approvals ...Approval) error {
	if res == nil || res.Normalized == nil {
		return fmt.Errorf("approve: result has no normalized model")
	}
	tm := res.Translations.Clone()
	approved := make(map[model.Kind]map[string]bool)
	for _, a := range approvals {
		cand, err := findCandidate(res.Proposals, a)
		if err != nil {
			return err
		}
		if err := tm.Approve(a.Kind, a.Local, a.Canonical, cand.Reversed); err != nil {
			return err
		}
		if approved[a.Kind] == nil {
			approved[a.Kind] = make(map[string]bool)
		}
		approved[a.Kind][a.Local] = true
	}

	translated, stats, err := s.Applicator.Apply(res.Normalized, tm)
	if err != nil {
		return fmt.Errorf("apply translation: %w", err)
	}

	var proposals []model.ProposedMatch
	for _, p := range res.Proposals {
		if !approved[p.Kind][p.Local] {
			proposals = append(proposals, p)
		}
	}
	res.Translations = tm
	res.Proposals = proposals
	res.Model = translated
	res.Applied = stats
	res.Report.Compounds, res.Report.Reactions = review.Summarize(res.Normalized, tm, proposals)

	s.Logger.Info("approvals applied",
		zap.String("run_id", res.Report.RunID),
		zap.Int("approved", len(approvals)),
		zap.Int("proposals", len(proposals)))
	return nil
}

func findCandidate(proposals []model.ProposedMatch, a Approval) (model.Candidate, error) {
	for _, p := range proposals {
		if p.Kind != a.Kind || p.Local != a.Local {
			continue
		}
		for _, c := range p.Candidates {
			if c.Canonical == a.Canonical {
				return c, nil
			}
		}
		return model.Candidate{}, fmt.Errorf("approve: %s is not a candidate for %s %s", a.Canonical, a.Kind, a.Local)
	}
	return model.Candidate{}, fmt.Errorf("approve: no proposal for %s %s", a.Kind, a.Local)
}
