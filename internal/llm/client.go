package llm

import (
	"context"
)

// LLMClient generates free-form text. Used for product enrichment, chat
// title generation and local reranking.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient produces the query vectors sent to the remote
// vector-similarity function.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RerankerClient reorders documents by relevance to a query. Implementations
// return indices into the input slice, most relevant first.
type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}
