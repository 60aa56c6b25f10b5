package review

import (
	"context"
	"errors"

	"github.com/agenthands/modelstd/internal/core/model"
)

type MockLLMClient struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

type MockReranker struct {
	Order []int
}

func (m *MockReranker) Rank(ctx context.Context, query string, documents []string) ([]int, error) {
	if m.Order == nil {
		return nil, errors.New("no order")
	}
	return m.Order, nil
}

type MockCatalog struct{}

func (MockCatalog) Compound(id string) (model.CanonicalCompound, bool) {
	if id == "cpd00027" {
		return model.CanonicalCompound{ID: id, Name: "D-Glucose", Formula: "C6H12O6"}, true
	}
	return model.CanonicalCompound{}, false
}

func (MockCatalog) Reaction(id string) (model.CanonicalReaction, bool) {
	return model.CanonicalReaction{}, false
}
