package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SimpleLLMReranker reorders search hits with a single ranking prompt.
// Ranking is best-effort: any generation or parse failure falls back to the
// incoming order so search never degrades below the backend ranking.
type SimpleLLMReranker struct {
	LLM LLMClient
}

func NewSimpleLLMReranker(client LLMClient) *SimpleLLMReranker {
	return &SimpleLLMReranker{LLM: client}
}

func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var b strings.Builder
	for i, d := range docs {
		content := d
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, content)
	}

	prompt := fmt.Sprintf(`You are a material search relevance system.
Query: %s

Documents:
%s

Rank the documents above by their relevance to the query.
Output ONLY the indices of the documents in order of relevance, separated by commas.
Example: 0, 2, 1
Do not output any other text.`, query, b.String())

	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return identityOrder(len(docs)), nil
	}

	order := sanitizeIndices(parseIndices(resp), len(docs))
	if len(order) != len(docs) {
		return identityOrder(len(docs)), nil
	}
	return order, nil
}

func identityOrder(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func parseIndices(s string) []int {
	re := regexp.MustCompile(`\d+`)
	matches := re.FindAllString(s, -1)
	var indices []int
	for _, m := range matches {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}

// sanitizeIndices drops out-of-range and duplicate indices, a common failure
// mode of ranking prompts, and appends any indices the model omitted.
func sanitizeIndices(raw []int, n int) []int {
	seen := make(map[int]bool, n)
	out := make([]int, 0, n)
	for _, i := range raw {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			out = append(out, i)
		}
	}
	return out
}
