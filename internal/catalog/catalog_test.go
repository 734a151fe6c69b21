package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialkai/vision-gateway/internal/driver"
	"github.com/materialkai/vision-gateway/internal/entities"
)

func TestSaveProductWritesNodeAndMentions(t *testing.T) {
	mock := &MockDriver{}
	c := New(mock)

	p := &Product{
		Name:             "VALENOVA",
		Description:      "Modular seating system",
		WorkspaceID:      "ws-1",
		SourceDocumentID: "doc-1",
		Entities: []entities.EntityData{
			{Type: entities.TypeMaterial, Text: "leather", Confidence: 0.9},
			{Type: entities.TypePerson, Text: "Maria Santos", Confidence: 0.8},
		},
	}

	err := c.SaveProduct(context.Background(), p)
	require.NoError(t, err)
	assert.NotEmpty(t, p.UUID)
	assert.False(t, p.CreatedAt.IsZero())

	// One transaction carrying the product write plus entity+mention
	// writes per entity.
	assert.Equal(t, 1, mock.Writes)
	require.Len(t, mock.Queries, 5)
	assert.Equal(t, driver.SaveProductQuery, mock.Queries[0].Query)
	assert.Equal(t, "VALENOVA", mock.Queries[0].Params["name"])
	assert.Equal(t, driver.SaveEntityQuery, mock.Queries[1].Query)
	assert.Equal(t, "leather", mock.Queries[1].Params["text"])
	assert.Equal(t, driver.SaveMentionQuery, mock.Queries[2].Query)
	assert.Equal(t, p.UUID, mock.Queries[2].Params["product_uuid"])
	assert.Equal(t, "MATERIAL", mock.Queries[2].Params["type"])
}

func TestSaveProductDriverError(t *testing.T) {
	mock := &MockDriver{Err: fmt.Errorf("bolt connection refused")}
	c := New(mock)

	err := c.SaveProduct(context.Background(), &Product{Name: "FOLD", WorkspaceID: "ws-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bolt connection refused")
}

func TestFacets(t *testing.T) {
	mock := &MockDriver{}
	// Four category queries, in Materials/Organizations/Locations/People order.
	mock.Results = append(mock.Results,
		eagerResult(
			record([]string{"text"}, []interface{}{"leather"}),
			record([]string{"text"}, []interface{}{"porcelain"}),
		),
		eagerResult(record([]string{"text"}, []interface{}{"Stacy Garcia NY"})),
		eagerResult(),
		eagerResult(record([]string{"text"}, []interface{}{"Maria Santos"})),
	)
	c := New(mock)

	f, err := c.Facets(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"leather", "porcelain"}, f.Materials)
	assert.Equal(t, []string{"Stacy Garcia NY"}, f.Organizations)
	assert.Empty(t, f.Locations)
	assert.Equal(t, []string{"Maria Santos"}, f.People)

	require.Len(t, mock.Queries, 4)
	assert.Equal(t, "MATERIAL", mock.Queries[0].Params["type"])
	assert.Equal(t, "PERSON", mock.Queries[3].Params["type"])
}

func TestProductEntities(t *testing.T) {
	mock := &MockDriver{}
	mock.Results = append(mock.Results, eagerResult(
		record([]string{"type", "text", "confidence"}, []interface{}{"MATERIAL", "oak", 0.95}),
		record([]string{"type", "text", "confidence"}, []interface{}{"ORG", "Dsignio", 0.7}),
	))
	c := New(mock)

	got, err := c.ProductEntities(context.Background(), "prod-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entities.TypeMaterial, got[0].Type)
	assert.Equal(t, "oak", got[0].Text)
	assert.Equal(t, 0.95, got[0].Confidence)
}

func TestWorkspaceProducts(t *testing.T) {
	mock := &MockDriver{}
	mock.Results = append(mock.Results, eagerResult(
		record(
			[]string{"uuid", "name", "description", "source_document_id"},
			[]interface{}{"p-1", "VALENOVA Sofa", "Modular seating.", "doc-1"},
		),
	))
	c := New(mock)

	got, err := c.WorkspaceProducts(context.Background(), "ws-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-1", got[0].UUID)
	assert.Equal(t, "VALENOVA Sofa", got[0].Name)
	assert.Equal(t, "ws-1", got[0].WorkspaceID)
	assert.Equal(t, "doc-1", got[0].SourceDocumentID)
}

func TestDeleteDocumentProducts(t *testing.T) {
	mock := &MockDriver{}
	c := New(mock)

	err := c.DeleteDocumentProducts(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, mock.Queries, 1)
	assert.Equal(t, driver.DeleteDocumentProductsQuery, mock.Queries[0].Query)
	assert.Equal(t, "doc-1", mock.Queries[0].Params["source_document_id"])
}
