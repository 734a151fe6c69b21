package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/materialkai/vision-gateway/internal/driver"
	"github.com/materialkai/vision-gateway/internal/entities"
)

// Product is a catalog item detected from document chunks, stored as a graph
// node with MENTIONS edges to its extracted entities.
type Product struct {
	UUID             string                `json:"uuid"`
	Name             string                `json:"name"`
	Code             string                `json:"code,omitempty"`
	Collection       string                `json:"collection,omitempty"`
	Colors           []string              `json:"colors,omitempty"`
	Finishes         []string              `json:"finishes,omitempty"`
	TechnicalRatings []string              `json:"technical_ratings,omitempty"`
	Description      string                `json:"description"`
	WorkspaceID      string                `json:"workspace_id"`
	SourceDocumentID string                `json:"source_document_id"`
	ChunkIndex       int                   `json:"chunk_index"`
	CreatedAt        time.Time             `json:"created_at"`
	Entities         []entities.EntityData `json:"entities,omitempty"`
}

// Facets holds the distinct selectable values per filter category for a
// workspace, in the shape filter panels consume.
type Facets struct {
	Materials     []string `json:"materials"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	People        []string `json:"people"`
}

type Catalog struct {
	Driver driver.GraphDriver
}

func New(d driver.GraphDriver) *Catalog {
	return &Catalog{Driver: d}
}

func (c *Catalog) BuildIndices(ctx context.Context) error {
	return c.Driver.BuildIndices(ctx)
}

// SaveProduct persists a product and its entities. The entity nodes are
// shared per workspace, so two products mentioning "porcelain" point at the
// same node.
func (c *Catalog) SaveProduct(ctx context.Context, p *Product) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	statements := []driver.Statement{{
		Query: driver.SaveProductQuery,
		Params: map[string]interface{}{
			"uuid":               p.UUID,
			"name":               p.Name,
			"code":               p.Code,
			"collection":         p.Collection,
			"colors":             p.Colors,
			"finishes":           p.Finishes,
			"technical_ratings":  p.TechnicalRatings,
			"description":        p.Description,
			"workspace_id":       p.WorkspaceID,
			"source_document_id": p.SourceDocumentID,
			"chunk_index":        p.ChunkIndex,
			"created_at":         p.CreatedAt,
		},
	}}

	for _, e := range p.Entities {
		statements = append(statements, driver.Statement{
			Query: driver.SaveEntityQuery,
			Params: map[string]interface{}{
				"uuid":         uuid.New().String(),
				"text":         e.Text,
				"type":         string(e.Type),
				"confidence":   e.Confidence,
				"workspace_id": p.WorkspaceID,
				"created_at":   p.CreatedAt,
			},
		}, driver.Statement{
			Query: driver.SaveMentionQuery,
			Params: map[string]interface{}{
				"product_uuid": p.UUID,
				"text":         e.Text,
				"type":         string(e.Type),
				"confidence":   e.Confidence,
				"workspace_id": p.WorkspaceID,
				"created_at":   p.CreatedAt,
			},
		})
	}

	// One transaction, so a product never lands without its mentions.
	if err := c.Driver.ExecuteWrite(ctx, statements); err != nil {
		return fmt.Errorf("failed to save product '%s': %w", p.Name, err)
	}
	return nil
}

// Facets returns the distinct entity values per filter category.
func (c *Catalog) Facets(ctx context.Context, workspaceID string) (*Facets, error) {
	f := &Facets{}
	categories := []struct {
		entityType entities.EntityType
		target     *[]string
	}{
		{entities.TypeMaterial, &f.Materials},
		{entities.TypeOrg, &f.Organizations},
		{entities.TypeLocation, &f.Locations},
		{entities.TypePerson, &f.People},
	}

	for _, cat := range categories {
		values, err := c.facetValues(ctx, workspaceID, cat.entityType)
		if err != nil {
			return nil, err
		}
		*cat.target = values
	}
	return f, nil
}

func (c *Catalog) facetValues(ctx context.Context, workspaceID string, t entities.EntityType) ([]string, error) {
	result, err := c.Driver.ExecuteQuery(ctx, driver.FacetValuesQuery, map[string]interface{}{
		"workspace_id": workspaceID,
		"type":         string(t),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s facet: %w", t, err)
	}

	values := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		if text, ok := record.Get("text"); ok {
			if s, ok := text.(string); ok && s != "" {
				values = append(values, s)
			}
		}
	}
	return values, nil
}

// ProductEntities returns the extracted entities linked to one product.
func (c *Catalog) ProductEntities(ctx context.Context, productUUID string) ([]entities.EntityData, error) {
	result, err := c.Driver.ExecuteQuery(ctx, driver.ProductEntitiesQuery, map[string]interface{}{
		"product_uuid": productUUID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load entities for product '%s': %w", productUUID, err)
	}

	out := make([]entities.EntityData, 0, len(result.Records))
	for _, record := range result.Records {
		e := entities.EntityData{}
		if v, ok := record.Get("type"); ok {
			if s, ok := v.(string); ok {
				e.Type = entities.EntityType(s)
			}
		}
		if v, ok := record.Get("text"); ok {
			if s, ok := v.(string); ok {
				e.Text = s
			}
		}
		if v, ok := record.Get("confidence"); ok {
			if f, ok := v.(float64); ok {
				e.Confidence = f
			}
		}
		if e.Text != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

// WorkspaceProducts lists the detected products of a workspace in creation
// order.
func (c *Catalog) WorkspaceProducts(ctx context.Context, workspaceID string) ([]Product, error) {
	result, err := c.Driver.ExecuteQuery(ctx, driver.WorkspaceProductsQuery, map[string]interface{}{
		"workspace_id": workspaceID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products for workspace '%s': %w", workspaceID, err)
	}

	products := make([]Product, 0, len(result.Records))
	for _, record := range result.Records {
		p := Product{WorkspaceID: workspaceID}
		if v, ok := record.Get("uuid"); ok {
			if s, ok := v.(string); ok {
				p.UUID = s
			}
		}
		if v, ok := record.Get("name"); ok {
			if s, ok := v.(string); ok {
				p.Name = s
			}
		}
		if v, ok := record.Get("description"); ok {
			if s, ok := v.(string); ok {
				p.Description = s
			}
		}
		if v, ok := record.Get("source_document_id"); ok {
			if s, ok := v.(string); ok {
				p.SourceDocumentID = s
			}
		}
		if p.UUID != "" {
			products = append(products, p)
		}
	}
	return products, nil
}

// DeleteDocumentProducts clears all products detected from one document,
// used before reprocessing it.
func (c *Catalog) DeleteDocumentProducts(ctx context.Context, sourceDocumentID string) error {
	_, err := c.Driver.ExecuteQuery(ctx, driver.DeleteDocumentProductsQuery, map[string]interface{}{
		"source_document_id": sourceDocumentID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete products for document '%s': %w", sourceDocumentID, err)
	}
	return nil
}
