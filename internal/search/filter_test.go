package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialkai/vision-gateway/internal/entities"
)

func TestApplyEntityFiltersIdentity(t *testing.T) {
	results := []Result{
		{ID: "1", Title: "b", SimilarityScore: 0.2},
		{ID: "2", Title: "a", SimilarityScore: 0.9},
		{ID: "3", Title: "c", SimilarityScore: 0.5},
	}

	filtered := ApplyEntityFilters(results, entities.Filters{})

	// The identity case returns the same slice, same order, untouched.
	require.Len(t, filtered, 3)
	assert.Equal(t, &results[0], &filtered[0])
	assert.Equal(t, []string{"1", "2", "3"}, []string{filtered[0].ID, filtered[1].ID, filtered[2].ID})
}

func TestApplyEntityFiltersNoFalsePositives(t *testing.T) {
	results := []Result{
		{ID: "1", ExtractedEntities: []entities.EntityData{{Type: entities.TypeMaterial, Text: "porcelain"}}},
		{ID: "2", ExtractedEntities: []entities.EntityData{{Type: entities.TypeMaterial, Text: "oak"}}},
		{ID: "3", ExtractedEntities: []entities.EntityData{{Type: entities.TypeOrg, Text: "Mut"}}},
		{ID: "4"},
	}
	filters := entities.Filters{
		Materials:     []string{"porcelain"},
		Organizations: []string{"Mut"},
	}

	filtered := ApplyEntityFilters(results, filters)

	require.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.True(t, filters.Matches(r.ExtractedEntities),
			"filtered output must only contain results with a matching entity")
	}
	assert.Equal(t, "1", filtered[0].ID)
	assert.Equal(t, "3", filtered[1].ID)
}

func TestApplyEntityFiltersPreservesOrder(t *testing.T) {
	results := []Result{
		{ID: "x", ExtractedEntities: []entities.EntityData{{Type: entities.TypePerson, Text: "Yonoh"}}},
		{ID: "y", ExtractedEntities: []entities.EntityData{{Type: entities.TypeMaterial, Text: "steel"}}},
		{ID: "z", ExtractedEntities: []entities.EntityData{{Type: entities.TypePerson, Text: "Yonoh"}}},
	}

	filtered := ApplyEntityFilters(results, entities.Filters{People: []string{"Yonoh"}})

	require.Len(t, filtered, 2)
	assert.Equal(t, "x", filtered[0].ID)
	assert.Equal(t, "z", filtered[1].ID)
}
