package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialkai/vision-gateway/internal/config"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/logging"
)

func testFunctions() config.FunctionNames {
	return config.FunctionNames{
		MaterialAgent:    "material-agent-orchestrator",
		SimpleAgent:      "material-agent",
		RAGSearch:        "enhanced-rag-search",
		VisualSearch:     "material-recognition",
		VectorSimilarity: "vector-similarity-search",
		Generation3D:     "crewai-3d-generation",
	}
}

func newTestOrchestrator(inv *mockInvoker) *Orchestrator {
	return NewOrchestrator(
		inv,
		testFunctions(),
		config.SearchConfig{DefaultLimit: 10},
		nil,
		nil,
		diag.NewRecorder(logging.NewNop()),
		logging.NewNop(),
	)
}

func TestClassifyMode(t *testing.T) {
	cases := []struct {
		text, image string
		want        Mode
		wantErr     bool
	}{
		{"", "img-bytes", ModeVisual, false},
		{"tile", "img-bytes", ModeHybrid, false},
		{"tile", "", ModeText, false},
		{"", "", "", true},
	}

	for _, tc := range cases {
		mode, err := ClassifyMode(Query{Text: tc.text, Image: tc.image})
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrEmptyQuery)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, mode)
	}

	// Explicit similarity mode bypasses classification.
	mode, err := ClassifyMode(Query{Mode: ModeSimilarity})
	require.NoError(t, err)
	assert.Equal(t, ModeSimilarity, mode)
}

func TestSearchRejectsEmptyQueryBeforeDispatch(t *testing.T) {
	inv := &mockInvoker{}
	o := newTestOrchestrator(inv)

	_, err := o.Search(context.Background(), Query{})

	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, 0, inv.Calls, "validation failures must never reach the network")
}

func TestSearchRoutesByMode(t *testing.T) {
	cases := []struct {
		query        Query
		wantFunction string
	}{
		{Query{Text: "tile"}, "enhanced-rag-search"},
		{Query{Image: "img"}, "material-recognition"},
		{Query{Text: "tile", Image: "img"}, "material-recognition"},
		{Query{Text: "tile", Mode: ModeSimilarity}, "vector-similarity-search"},
	}

	for _, tc := range cases {
		inv := &mockInvoker{}
		o := newTestOrchestrator(inv)

		_, err := o.Search(context.Background(), tc.query)
		require.NoError(t, err)
		assert.Equal(t, 1, inv.Calls, "exactly one strategy call per query")
		assert.Equal(t, tc.wantFunction, inv.Function)
	}
}

func TestSearchSimilarityUsesEmbedder(t *testing.T) {
	inv := &mockInvoker{}
	o := newTestOrchestrator(inv)
	o.embedder = &mockEmbedder{Vector: []float32{0.1, 0.2, 0.3}}

	_, err := o.Search(context.Background(), Query{Text: "tile", Mode: ModeSimilarity})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, inv.Payload["query_embedding"])
}

func TestSearchEmbedderFailureDegrades(t *testing.T) {
	inv := &mockInvoker{}
	o := newTestOrchestrator(inv)
	o.embedder = &mockEmbedder{Err: fmt.Errorf("embedding model down")}

	_, err := o.Search(context.Background(), Query{Text: "tile", Mode: ModeSimilarity})

	// The call still goes out, just without a precomputed vector.
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Calls)
	assert.NotContains(t, inv.Payload, "query_embedding")
}

func TestSearchSurfacesRemoteError(t *testing.T) {
	inv := &mockInvoker{Err: fmt.Errorf("gateway down")}
	o := newTestOrchestrator(inv)

	_, err := o.Search(context.Background(), Query{Text: "tile"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
}

func TestSearchDiscardsStaleResponse(t *testing.T) {
	inv := &mockInvoker{}
	o := newTestOrchestrator(inv)

	var secondResults []Result
	var secondErr error

	// While the first query is in flight, a second query for the same
	// surface completes. The first response is then stale.
	inv.BeforeReturn = func() {
		secondResults, secondErr = o.Search(context.Background(), Query{
			Text:    "newer query",
			Surface: "main",
		})
	}

	_, firstErr := o.Search(context.Background(), Query{Text: "older query", Surface: "main"})

	assert.ErrorIs(t, firstErr, ErrStale)
	assert.NoError(t, secondErr)
	assert.NotNil(t, secondResults)
}

func TestSearchDifferentSurfacesDoNotInterfere(t *testing.T) {
	inv := &mockInvoker{}
	o := newTestOrchestrator(inv)

	inv.BeforeReturn = func() {
		_, err := o.Search(context.Background(), Query{Text: "other", Surface: "sidebar"})
		require.NoError(t, err)
	}

	_, err := o.Search(context.Background(), Query{Text: "main query", Surface: "main"})
	assert.NoError(t, err, "a query on another surface must not invalidate this one")
}

func TestSearchAppliesFiltersAfterNormalize(t *testing.T) {
	inv := &mockInvoker{
		Response: resultsEnvelope("results",
			map[string]interface{}{
				"name": "match", "score": 0.9,
				"extracted_entities": []interface{}{
					map[string]interface{}{"type": "MATERIAL", "text": "porcelain", "confidence": 0.9},
				},
			},
			map[string]interface{}{"name": "no entities", "score": 0.8},
		),
	}
	o := newTestOrchestrator(inv)

	q := Query{Text: "tile"}
	q.Filters.Materials = []string{"porcelain"}

	results, err := o.Search(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].Title)
}
