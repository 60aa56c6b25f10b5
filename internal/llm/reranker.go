package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type SimpleLLMReranker struct {
	LLM LLMClient
}

func NewSimpleLLMReranker(client LLMClient) *SimpleLLMReranker {
	return &SimpleLLMReranker{LLM: client}
}

// Rank asks the model for an ordering. Indices the model omits or repeats
// are repaired so the result is always a permutation of the documents; on a
// model error the original order is returned.
func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		content := d
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&docList, "[%d] %s\n", i, content)
	}

	prompt := fmt.Sprintf(`You are ranking candidate identifiers from a biochemistry database.
Query: %s

Candidates:
%s

Rank the candidates above by how likely each is the same chemical entity as the query.
Output ONLY the indices of the candidates in order, separated by commas.
Example: 0, 2, 1
Do not output any other text.`, query, docList.String())

	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return identity(len(docs)), nil
	}

	return parseIndices(resp, len(docs)), nil
}

var indexPattern = regexp.MustCompile(`\d+`)

func parseIndices(s string, n int) []int {
	seen := make(map[int]bool, n)
	indices := make([]int, 0, n)
	for _, m := range indexPattern.FindAllString(s, -1) {
		i, err := strconv.Atoi(m)
		if err != nil || i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			indices = append(indices, i)
		}
	}
	return indices
}

func identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
