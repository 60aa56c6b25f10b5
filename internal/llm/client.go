package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RerankerClient orders documents by relevance to a query and returns their
// indices, most relevant first.
type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}
