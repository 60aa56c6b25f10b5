// Package core drives a standardization run: compartment normalization,
// alternating compound and reaction matching rounds, and translation.
package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/modelstd/internal/biochem"
	"github.com/agenthands/modelstd/internal/core/compartment"
	"github.com/agenthands/modelstd/internal/core/match"
	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/core/review"
	"github.com/agenthands/modelstd/internal/core/translate"
	"github.com/agenthands/modelstd/internal/metrics"
)

type Options struct {
	// Workers evaluates independent entities of a round in parallel.
	Workers         int
	MaxCombinations int
	// Compartments maps synonyms to their target compartment. Nil disables
	// compartment normalization.
	Compartments map[string]string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

type Standardizer struct {
	DB         biochem.ReferenceDatabase
	Compounds  *match.CompoundMatcher
	Reactions  *match.ReactionMatcher
	Normalizer *compartment.Normalizer
	Applicator *translate.Applicator
	Workers    int
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

func NewStandardizer(db biochem.ReferenceDatabase, opts Options) *Standardizer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	s := &Standardizer{
		DB:         db,
		Compounds:  match.NewCompoundMatcher(db),
		Reactions:  match.NewReactionMatcher(db, opts.MaxCombinations),
		Applicator: translate.NewApplicator(logger),
		Workers:    workers,
		Logger:     logger,
		Metrics:    opts.Metrics,
	}
	if opts.Compartments != nil {
		s.Normalizer = compartment.NewNormalizer(opts.Compartments, logger)
	}
	return s
}

type Result struct {
	Model        *model.WorkingModel    `json:"model"`
	Translations *model.TranslationMap  `json:"translations"`
	Proposals    []model.ProposedMatch  `json:"proposals"`
	Report       model.ComparisonReport `json:"report"`
	Applied      translate.Stats        `json:"applied"`
	// Normalized is the input after compartment normalization, before
	// translation. Reviewer approvals are applied to it.
	Normalized *model.WorkingModel `json:"-"`
}

// Standardize matches wm against the reference database and returns the
// translated copy. wm is not modified. StructuralError and CollisionError
// abort the run.
func (s *Standardizer) Standardize(ctx context.Context, wm *model.WorkingModel, maxIterations int) (*Result, error) {
	res, err := s.standardize(ctx, wm, maxIterations)
	if err != nil {
		s.Metrics.ObserveError(err)
		return nil, err
	}
	s.Metrics.ObserveReport(res.Report)
	return res, nil
}

func (s *Standardizer) standardize(ctx context.Context, wm *model.WorkingModel, maxIterations int) (*Result, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}
	report := model.ComparisonReport{
		RunID:         uuid.New().String(),
		MaxIterations: maxIterations,
		StartedAt:     time.Now().UTC(),
	}
	log := s.Logger.With(zap.String("run_id", report.RunID), zap.String("model", wm.ID))

	work := wm.Clone()
	if err := work.Validate(); err != nil {
		return nil, err
	}
	if s.Normalizer != nil {
		norm, err := s.Normalizer.Normalize(work)
		if err != nil {
			return nil, fmt.Errorf("compartment normalization: %w", err)
		}
		report.CompartmentsMerged = norm.Merged
		report.ReactionsRemoved = len(norm.ReactionsRemoved)
	}

	tm := model.NewTranslationMap()
	reporter := review.NewReporter()
	run := &roundState{
		work:     work,
		tm:       tm,
		reporter: reporter,
		hints:    map[string][]string{},
		pending:  map[string][]string{},
	}

	report.Outcome = model.OutcomeExhausted
	for round := 1; round <= maxIterations; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := s.round(ctx, run, round)
		if err != nil {
			return nil, err
		}
		report.Rounds = round
		report.Log = append(report.Log, entry)
		log.Info("matching round finished",
			zap.Int("round", round),
			zap.Int("new_compounds", entry.NewCompounds),
			zap.Int("new_reactions", entry.NewReactions),
			zap.Int("proposals", entry.Proposals),
			zap.Int("hints", entry.Hints))
		if entry.NewCompounds == 0 && entry.NewReactions == 0 && !run.hintsChanged {
			report.Outcome = model.OutcomeConverged
			break
		}
	}

	proposals := reporter.Final(tm)
	for _, p := range proposals {
		if p.DirectionConflict {
			report.DirectionConflicts++
		}
		log.Debug("proposed match",
			zap.String("kind", string(p.Kind)),
			zap.String("local", p.Local),
			zap.Strings("candidates", p.CandidateIDs()))
	}
	for _, e := range tm.Entries(model.KindReaction) {
		if len(e.Filtered) > 0 {
			log.Debug("direction conflicts filtered",
				zap.String("local", e.Local),
				zap.String("canonical", e.Canonical),
				zap.Strings("filtered", e.Filtered))
		}
	}
	report.Compounds, report.Reactions = review.Summarize(work, tm, proposals)

	translated, stats, err := s.Applicator.Apply(work, tm)
	if err != nil {
		return nil, fmt.Errorf("apply translation: %w", err)
	}
	report.FinishedAt = time.Now().UTC()

	log.Info("standardization finished",
		zap.String("outcome", string(report.Outcome)),
		zap.Int("rounds", report.Rounds),
		zap.Int("compounds_exact", report.Compounds.Exact),
		zap.Int("compounds_probable", report.Compounds.Probable),
		zap.Int("reactions_exact", report.Reactions.Exact),
		zap.Int("proposals", len(proposals)))

	return &Result{
		Model:        translated,
		Translations: tm,
		Proposals:    proposals,
		Report:       report,
		Applied:      stats,
		Normalized:   work,
	}, nil
}

// roundState is carried from one matching round to the next.
type roundState struct {
	work     *model.WorkingModel
	tm       *model.TranslationMap
	reporter *review.Reporter
	// hints holds reaction-context suggestions per local compound.
	hints map[string][]string
	// pending holds the candidates of compounds still under proposal.
	pending      map[string][]string
	hintsChanged bool
}

// round runs the compound pass then the reaction pass. Results of a pass are
// merged only after every entity of the pass has been evaluated.
func (s *Standardizer) round(ctx context.Context, st *roundState, round int) (model.RoundLog, error) {
	entry := model.RoundLog{Round: round}

	var compounds []string
	for _, id := range st.work.CompoundIDs() {
		if _, done := st.tm.Lookup(model.KindCompound, id); !done {
			compounds = append(compounds, id)
		}
	}
	cres := make([]match.CompoundResult, len(compounds))
	err := s.parallel(ctx, len(compounds), func(i int) {
		id := compounds[i]
		cres[i] = s.Compounds.Match(st.work.Compounds[id], st.hints[id])
	})
	if err != nil {
		return entry, err
	}
	for i, id := range compounds {
		r := cres[i]
		switch {
		case r.Entry != nil:
			r.Entry.Round = round
			if st.tm.Add(model.KindCompound, *r.Entry) {
				entry.NewCompounds++
			}
			st.reporter.Clear(model.KindCompound, id)
			delete(st.pending, id)
		case r.Proposal != nil:
			r.Proposal.Round = round
			st.reporter.Record(*r.Proposal)
			st.pending[id] = r.Proposal.CandidateIDs()
		default:
			st.reporter.Clear(model.KindCompound, id)
			delete(st.pending, id)
		}
	}

	var reactions []string
	for _, id := range st.work.ReactionIDs() {
		if _, done := st.tm.Lookup(model.KindReaction, id); !done {
			reactions = append(reactions, id)
		}
	}
	rres := make([]match.ReactionResult, len(reactions))
	err = s.parallel(ctx, len(reactions), func(i int) {
		rres[i] = s.Reactions.Match(st.work.Reactions[reactions[i]], st.work, st.tm, st.pending)
	})
	if err != nil {
		return entry, err
	}
	hints := make(map[string][]string)
	for i, id := range reactions {
		r := rres[i]
		switch {
		case r.Entry != nil:
			r.Entry.Round = round
			if st.tm.Add(model.KindReaction, *r.Entry) {
				entry.NewReactions++
			}
			st.reporter.Clear(model.KindReaction, id)
		case r.Proposal != nil:
			r.Proposal.Round = round
			st.reporter.Record(*r.Proposal)
		default:
			st.reporter.Clear(model.KindReaction, id)
		}
		for cpd, canonical := range r.Hints {
			if _, done := st.tm.Lookup(model.KindCompound, cpd); !done {
				hints[cpd] = append(hints[cpd], canonical)
			}
		}
	}
	for cpd := range hints {
		sort.Strings(hints[cpd])
		entry.Hints++
	}
	st.hintsChanged = newHints(st.hints, hints)
	st.hints = hints
	entry.Proposals = st.reporter.Len()
	return entry, nil
}

// parallel calls fn for 0..n-1 on up to Workers goroutines. fn must only
// write its own slot of any shared result slice.
func (s *Standardizer) parallel(ctx context.Context, n int, fn func(i int)) error {
	if s.Workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// newHints reports whether next suggests anything prev did not.
func newHints(prev, next map[string][]string) bool {
	for k, nv := range next {
		pv, ok := prev[k]
		if !ok || len(pv) != len(nv) {
			return true
		}
		for i := range nv {
			if pv[i] != nv[i] {
				return true
			}
		}
	}
	return false
}
