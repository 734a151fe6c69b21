package search

import (
	"context"
	"fmt"

	"github.com/materialkai/vision-gateway/internal/config"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/functions"
	"github.com/materialkai/vision-gateway/internal/llm"
	"github.com/materialkai/vision-gateway/internal/logging"
)

// ErrStale marks a response that arrived after a newer query was issued for
// the same surface. Callers drop it; the newer query's results win.
var ErrStale = fmt.Errorf("search response superseded by a newer query")

// Orchestrator selects exactly one remote strategy per query and issues a
// single call. No retries, no caching, no request deduplication.
type Orchestrator struct {
	invoker  functions.Invoker
	fn       config.FunctionNames
	embedder llm.EmbedderClient
	reranker llm.RerankerClient
	diag     *diag.Recorder
	log      *logging.Logger
	seq      *sequencer

	defaultLimit int
	rerank       bool
}

func NewOrchestrator(
	invoker functions.Invoker,
	fn config.FunctionNames,
	searchCfg config.SearchConfig,
	embedder llm.EmbedderClient,
	reranker llm.RerankerClient,
	recorder *diag.Recorder,
	log *logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		invoker:      invoker,
		fn:           fn,
		embedder:     embedder,
		reranker:     reranker,
		diag:         recorder,
		log:          log,
		seq:          newSequencer(),
		defaultLimit: searchCfg.DefaultLimit,
		rerank:       searchCfg.Rerank,
	}
}

// Search runs a query end to end: classify, dispatch, normalize, optionally
// rerank, filter. Validation failures never reach the network.
func (o *Orchestrator) Search(ctx context.Context, q Query) ([]Result, error) {
	mode, err := ClassifyMode(q)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = o.defaultLimit
	}
	surface := q.Surface
	if surface == "" {
		surface = "default"
	}

	function, payload := o.strategyCall(ctx, mode, q, limit)

	seq := o.seq.begin(surface)
	resp, callErr := o.invoker.Invoke(ctx, function, payload)

	if !o.seq.isLatest(surface, seq) {
		o.diag.Record("search", "stale_response", fmt.Errorf("surface %s seq %d superseded", surface, seq))
		return nil, ErrStale
	}
	if callErr != nil {
		return nil, callErr
	}

	results, err := Normalize(resp, mode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize '%s' response: %w", function, err)
	}

	if o.rerank && o.reranker != nil && q.Text != "" && len(results) > 1 {
		results = o.rerankResults(ctx, q.Text, results)
	}

	return ApplyEntityFilters(results, q.Filters), nil
}

// strategyCall maps a mode to a deployed function and its payload shape.
func (o *Orchestrator) strategyCall(ctx context.Context, mode Mode, q Query, limit int) (string, map[string]interface{}) {
	switch mode {
	case ModeVisual:
		return o.fn.VisualSearch, map[string]interface{}{
			"image":       q.Image,
			"match_count": limit,
		}
	case ModeHybrid:
		return o.fn.VisualSearch, map[string]interface{}{
			"query":       q.Text,
			"image":       q.Image,
			"match_count": limit,
		}
	case ModeSimilarity:
		payload := map[string]interface{}{
			"query":       q.Text,
			"threshold":   q.Threshold,
			"match_count": limit,
		}
		// The similarity function accepts a precomputed query vector; when
		// no embedder is configured it embeds server-side from the text.
		if o.embedder != nil && q.Text != "" {
			if vec, err := o.embedder.Embed(ctx, q.Text); err == nil {
				payload["query_embedding"] = vec
			} else {
				o.diag.Record("search", "query_embedding", err)
			}
		}
		return o.fn.VectorSimilarity, payload
	default: // ModeText
		return o.fn.RAGSearch, map[string]interface{}{
			"query":           q.Text,
			"match_threshold": q.Threshold,
			"match_count":     limit,
		}
	}
}

func (o *Orchestrator) rerankResults(ctx context.Context, query string, results []Result) []Result {
	docs := make([]string, len(results))
	for i, r := range results {
		docs[i] = r.Title + ": " + r.Content
	}
	order, err := o.reranker.Rank(ctx, query, docs)
	if err != nil || len(order) != len(results) {
		o.diag.Record("search", "rerank", err)
		return results
	}
	reordered := make([]Result, 0, len(results))
	for _, idx := range order {
		reordered = append(reordered, results[idx])
	}
	return reordered
}
