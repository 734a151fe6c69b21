//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/materialkai/vision-gateway/internal/catalog"
	"github.com/materialkai/vision-gateway/internal/driver"
	"github.com/materialkai/vision-gateway/internal/entities"
	"github.com/materialkai/vision-gateway/internal/logging"
)

// Runs against a real Memgraph/Neo4j instance. Skipped unless CATALOG_URI is
// set, e.g. CATALOG_URI=bolt://localhost:7687 go test -tags integration ./test/...
func TestCatalogRoundTrip(t *testing.T) {
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("CATALOG_URI")
	if uri == "" {
		t.Skip("Skipping integration test: CATALOG_URI not set")
	}
	user := os.Getenv("CATALOG_USER")
	pwd := os.Getenv("CATALOG_PASSWORD")

	log := logging.NewNop()
	d, err := driver.NewMemgraphDriver(uri, user, pwd, log)
	require.NoError(t, err)
	defer d.Close(context.Background())

	cat := catalog.New(d)
	ctx := context.Background()
	require.NoError(t, cat.BuildIndices(ctx))

	workspaceID := fmt.Sprintf("it-%d", time.Now().UnixNano())
	documentID := "doc-1"

	product := &catalog.Product{
		Name:             "VALENOVA Sofa",
		Description:      "Modular seating system.",
		WorkspaceID:      workspaceID,
		SourceDocumentID: documentID,
		ChunkIndex:       3,
		Entities: []entities.EntityData{
			{Type: entities.TypeMaterial, Text: "Walnut", Confidence: 0.9},
			{Type: entities.TypePerson, Text: "Maria Santos", Confidence: 0.85},
		},
	}
	require.NoError(t, cat.SaveProduct(ctx, product))
	require.NotEmpty(t, product.UUID)

	facets, err := cat.Facets(ctx, workspaceID)
	require.NoError(t, err)
	assert.Contains(t, facets.Materials, "Walnut")
	assert.Contains(t, facets.People, "Maria Santos")

	got, err := cat.ProductEntities(ctx, product.UUID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	products, err := cat.WorkspaceProducts(ctx, workspaceID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "VALENOVA Sofa", products[0].Name)

	require.NoError(t, cat.DeleteDocumentProducts(ctx, documentID))
	products, err = cat.WorkspaceProducts(ctx, workspaceID)
	require.NoError(t, err)
	assert.Empty(t, products)
}
