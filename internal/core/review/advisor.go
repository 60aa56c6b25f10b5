package review

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/modelstd/internal/core/common"
	"github.com/agenthands/modelstd/internal/core/model"
	"github.com/agenthands/modelstd/internal/llm"
)

// Catalog describes canonical candidates in prompts. biochem.Memory
// satisfies it.
type Catalog interface {
	Compound(id string) (model.CanonicalCompound, bool)
	Reaction(id string) (model.CanonicalReaction, bool)
}

const DefaultAdvisePrompt = `You are assisting a curator who maps metabolic model identifiers onto a reference biochemistry database.
For each proposal below, pick the candidate most likely to be the same entity as the local one, or none.
Be conservative: recommend a candidate only when the evidence supports it.

%s

Return a JSON object with key "advice", a list of objects with "kind", "local", "recommended" (a candidate identifier, or "" for none), "confidence" (0 to 1) and "rationale".
Example:
{"advice": [{"kind": "compound", "local": "glc", "recommended": "cpd00027", "confidence": 0.8, "rationale": "name and formula agree"}]}`

type adviceItem struct {
	Kind        string  `json:"kind"`
	Local       string  `json:"local"`
	Recommended string  `json:"recommended"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale"`
}

type adviceResult struct {
	Advice []adviceItem `json:"advice"`
}

// Advisor asks a language model for an opinion on each proposal. The opinion
// is attached as Advice; proposals stay unresolved.
type Advisor struct {
	LLM      llm.LLMClient
	Reranker llm.RerankerClient
	Catalog  Catalog
	Prompt   string
	MaxBatch int
	Logger   *zap.Logger
}

func NewAdvisor(client llm.LLMClient, catalog Catalog, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{
		LLM:      client,
		Catalog:  catalog,
		Prompt:   DefaultAdvisePrompt,
		MaxBatch: 20,
		Logger:   logger,
	}
}

// Advise returns copies of proposals with advice attached where the model
// recommended one of the listed candidates. wm may be nil.
func (a *Advisor) Advise(ctx context.Context, proposals []model.ProposedMatch, wm *model.WorkingModel) ([]model.ProposedMatch, error) {
	out := make([]model.ProposedMatch, len(proposals))
	for i, p := range proposals {
		out[i] = p
		out[i].Candidates = append([]model.Candidate(nil), p.Candidates...)
	}
	if a.LLM == nil || len(out) == 0 {
		return out, nil
	}

	if a.Reranker != nil {
		for i := range out {
			if err := a.rerank(ctx, &out[i], wm); err != nil {
				return nil, err
			}
		}
	}

	batch := a.MaxBatch
	if batch <= 0 {
		batch = len(out)
	}
	for start := 0; start < len(out); start += batch {
		end := start + batch
		if end > len(out) {
			end = len(out)
		}
		if err := a.adviseBatch(ctx, out[start:end], wm); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Advisor) adviseBatch(ctx context.Context, batch []model.ProposedMatch, wm *model.WorkingModel) error {
	var b strings.Builder
	for _, p := range batch {
		b.WriteString(a.describeProposal(p, wm))
	}
	template := a.Prompt
	if template == "" {
		template = DefaultAdvisePrompt
	}

	response, err := a.LLM.Generate(ctx, fmt.Sprintf(template, b.String()))
	if err != nil {
		return fmt.Errorf("failed to generate review advice: %w", err)
	}
	result, err := common.ParseJSON[adviceResult](response)
	if err != nil {
		return fmt.Errorf("failed to parse review advice: %w", err)
	}

	index := make(map[string]int, len(batch))
	for i, p := range batch {
		index[string(p.Kind)+":"+p.Local] = i
	}
	for _, item := range result.Advice {
		i, ok := index[strings.ToLower(item.Kind)+":"+item.Local]
		if !ok {
			a.Logger.Debug("advice for unknown proposal", zap.String("local", item.Local))
			continue
		}
		if item.Recommended != "" && !contains(batch[i].CandidateIDs(), item.Recommended) {
			a.Logger.Debug("advice outside candidate set",
				zap.String("local", item.Local),
				zap.String("recommended", item.Recommended))
			continue
		}
		batch[i].Advice = &model.Advice{
			Recommended: item.Recommended,
			Confidence:  clamp(item.Confidence),
			Rationale:   item.Rationale,
		}
	}
	return nil
}

// rerank orders the candidates of p by the reranker's opinion.
func (a *Advisor) rerank(ctx context.Context, p *model.ProposedMatch, wm *model.WorkingModel) error {
	if len(p.Candidates) < 2 {
		return nil
	}
	docs := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		docs[i] = a.describeCandidate(p.Kind, c)
	}
	order, err := a.Reranker.Rank(ctx, a.describeLocal(p.Kind, p.Local, wm), docs)
	if err != nil {
		return fmt.Errorf("failed to rank candidates of %s: %w", p.Local, err)
	}
	ranked := make([]model.Candidate, 0, len(p.Candidates))
	for _, i := range order {
		if i >= 0 && i < len(p.Candidates) {
			ranked = append(ranked, p.Candidates[i])
		}
	}
	if len(ranked) == len(p.Candidates) {
		p.Candidates = ranked
	}
	return nil
}

func (a *Advisor) describeProposal(p model.ProposedMatch, wm *model.WorkingModel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<PROPOSAL kind=%s local=%s>\n", p.Kind, p.Local)
	fmt.Fprintf(&b, "Local: %s\n", a.describeLocal(p.Kind, p.Local, wm))
	if len(p.Unresolved) > 0 {
		fmt.Fprintf(&b, "Untranslated compounds: %s\n", strings.Join(p.Unresolved, ", "))
	}
	if p.DirectionConflict {
		b.WriteString("Directionality conflicts with every candidate.\n")
	}
	for _, c := range p.Candidates {
		fmt.Fprintf(&b, "- %s\n", a.describeCandidate(p.Kind, c))
	}
	b.WriteString("</PROPOSAL>\n")
	return b.String()
}

func (a *Advisor) describeLocal(kind model.Kind, local string, wm *model.WorkingModel) string {
	if wm == nil {
		return local
	}
	if kind == model.KindCompound {
		if c, ok := wm.Compounds[local]; ok {
			return fmt.Sprintf("%s name=%q formula=%s charge=%d compartment=%s aliases=%s",
				c.ID, c.Name, c.Formula, c.Charge, c.Compartment, strings.Join(c.Aliases, ","))
		}
		return local
	}
	if r, ok := wm.Reactions[local]; ok {
		return fmt.Sprintf("%s name=%q %s direction=%s", r.ID, r.Name, r.Stoichiometry, r.Direction)
	}
	return local
}

func (a *Advisor) describeCandidate(kind model.Kind, c model.Candidate) string {
	evidence := make([]string, len(c.Evidence))
	for i, e := range c.Evidence {
		evidence[i] = string(e)
	}
	desc := c.Canonical
	if a.Catalog != nil {
		if kind == model.KindCompound {
			if cpd, ok := a.Catalog.Compound(c.Canonical); ok {
				desc = fmt.Sprintf("%s name=%q formula=%s charge=%d", cpd.ID, cpd.Name, cpd.Formula, cpd.Charge)
			}
		} else if rxn, ok := a.Catalog.Reaction(c.Canonical); ok {
			desc = fmt.Sprintf("%s name=%q %s direction=%s", rxn.ID, rxn.Name, rxn.Stoichiometry, rxn.Direction)
		}
	}
	if c.Reversed {
		desc += " (reversed)"
	}
	return fmt.Sprintf("%s evidence=%s", desc, strings.Join(evidence, ","))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
