package ingest

import (
	"context"
	"fmt"
	"sort"

	"github.com/materialkai/vision-gateway/internal/catalog"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/entities"
	"github.com/materialkai/vision-gateway/internal/llm"
	"github.com/materialkai/vision-gateway/internal/logging"
)

// ProductStore is the catalog surface the detector writes to.
type ProductStore interface {
	SaveProduct(ctx context.Context, p *catalog.Product) error
	DeleteDocumentProducts(ctx context.Context, sourceDocumentID string) error
}

// Chunk is one piece of an ingested document.
type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"chunk_index"`
	Content string `json:"content"`
}

type DetectRequest struct {
	DocumentID  string  `json:"document_id"`
	WorkspaceID string  `json:"workspace_id"`
	Chunks      []Chunk `json:"chunks"`
	// MaxProducts caps the number of products created; zero means no cap.
	MaxProducts    int `json:"max_products"`
	MinChunkLength int `json:"min_chunk_length"`
	// Replace clears previously detected products for the document first.
	Replace bool `json:"replace"`
}

type DetectResult struct {
	TotalChunks      int      `json:"total_chunks"`
	ChunksProcessed  int      `json:"chunks_processed"`
	Stage1Candidates int      `json:"stage1_candidates"`
	ProductsCreated  int      `json:"products_created"`
	ProductsFailed   int      `json:"products_failed"`
	ProductNames     []string `json:"product_names"`
}

// productExtraction is the JSON shape the enrichment prompt asks for,
// following the platform's canonical product metadata: identity, physical,
// visual, and technical fields.
type productExtraction struct {
	Name             string            `json:"name"`
	ProductCode      string            `json:"product_code"`
	Collection       string            `json:"collection"`
	Description      string            `json:"description"`
	Materials        []string          `json:"materials"`
	Designer         string            `json:"designer"`
	Manufacturer     string            `json:"manufacturer"`
	Dimensions       string            `json:"dimensions"`
	Colors           []string          `json:"colors"`
	Finishes         []string          `json:"finishes"`
	TechnicalRatings map[string]string `json:"technical_ratings"`
}

const extractionConfidence = 0.85

// Detector turns document chunks into catalog products in two stages:
// a cheap heuristic pass that filters out index/sustainability/certification
// noise, then an LLM enrichment pass over the survivors only.
type Detector struct {
	classifier *Classifier
	llm        llm.LLMClient
	store      ProductStore
	diag       *diag.Recorder
	log        *logging.Logger

	minChunkLength int
}

func NewDetector(llmClient llm.LLMClient, store ProductStore, minChunkLength int, recorder *diag.Recorder, log *logging.Logger) *Detector {
	return &Detector{
		classifier:     NewClassifier(),
		llm:            llmClient,
		store:          store,
		diag:           recorder,
		log:            log,
		minChunkLength: minChunkLength,
	}
}

// CreateFromChunks runs both stages. A stage-2 failure skips that product
// and keeps going; only a store wipe failure aborts the batch.
func (d *Detector) CreateFromChunks(ctx context.Context, req DetectRequest) (*DetectResult, error) {
	if req.DocumentID == "" || req.WorkspaceID == "" {
		return nil, fmt.Errorf("document_id and workspace_id are required")
	}
	minLength := req.MinChunkLength
	if minLength <= 0 {
		minLength = d.minChunkLength
	}

	if req.Replace {
		if err := d.store.DeleteDocumentProducts(ctx, req.DocumentID); err != nil {
			return nil, err
		}
	}

	result := &DetectResult{TotalChunks: len(req.Chunks)}

	// Stage 1: heuristic filtering, no LLM involved.
	var candidates []Chunk
	for _, chunk := range req.Chunks {
		result.ChunksProcessed++
		if d.classifier.IsProductCandidate(chunk.Content, minLength) {
			candidates = append(candidates, chunk)
		}
	}
	result.Stage1Candidates = len(candidates)

	// Stage 2: per-candidate enrichment.
	for _, chunk := range candidates {
		if req.MaxProducts > 0 && result.ProductsCreated >= req.MaxProducts {
			break
		}

		product, err := d.enrich(ctx, req, chunk)
		if err != nil {
			result.ProductsFailed++
			d.diag.Record("ingest", "product_enrichment", fmt.Errorf("chunk %d: %w", chunk.Index, err))
			continue
		}

		if err := d.store.SaveProduct(ctx, product); err != nil {
			result.ProductsFailed++
			d.diag.Record("ingest", "product_save", fmt.Errorf("chunk %d: %w", chunk.Index, err))
			continue
		}

		result.ProductsCreated++
		result.ProductNames = append(result.ProductNames, product.Name)
	}

	d.log.Info("product detection finished",
		"document_id", req.DocumentID,
		"total_chunks", result.TotalChunks,
		"stage1_candidates", result.Stage1Candidates,
		"products_created", result.ProductsCreated,
		"products_failed", result.ProductsFailed,
	)
	return result, nil
}

func (d *Detector) enrich(ctx context.Context, req DetectRequest, chunk Chunk) (*catalog.Product, error) {
	prompt := fmt.Sprintf(`Extract the product described in the following catalog text.
Respond with a JSON object only:
{"name": "...", "product_code": "...", "collection": "...", "description": "...",
 "materials": ["..."], "designer": "...", "manufacturer": "...", "dimensions": "...",
 "colors": ["..."], "finishes": ["..."],
 "technical_ratings": {"slip_resistance": "...", "water_absorption": "..."}}
Use an empty string, empty list or empty object for anything not present.

Text:
%s`, chunk.Content)

	response, err := d.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("enrichment generation failed: %w", err)
	}

	extraction, err := llm.ParseJSON[productExtraction](response)
	if err != nil {
		return nil, fmt.Errorf("enrichment response unusable: %w", err)
	}
	if extraction.Name == "" {
		return nil, fmt.Errorf("enrichment found no product name")
	}

	product := &catalog.Product{
		Name:             extraction.Name,
		Code:             extraction.ProductCode,
		Collection:       extraction.Collection,
		Description:      extraction.Description,
		Colors:           extraction.Colors,
		Finishes:         extraction.Finishes,
		TechnicalRatings: flattenRatings(extraction.TechnicalRatings),
		WorkspaceID:      req.WorkspaceID,
		SourceDocumentID: req.DocumentID,
		ChunkIndex:       chunk.Index,
	}
	for _, m := range extraction.Materials {
		if m == "" {
			continue
		}
		product.Entities = append(product.Entities, entities.EntityData{
			Type:       entities.TypeMaterial,
			Text:       m,
			Confidence: extractionConfidence,
		})
	}
	if extraction.Designer != "" {
		product.Entities = append(product.Entities, entities.EntityData{
			Type:       entities.TypePerson,
			Text:       extraction.Designer,
			Confidence: extractionConfidence,
		})
	}
	if extraction.Manufacturer != "" {
		product.Entities = append(product.Entities, entities.EntityData{
			Type:       entities.TypeOrg,
			Text:       extraction.Manufacturer,
			Confidence: extractionConfidence,
		})
	}
	return product, nil
}

// flattenRatings turns the ratings object into sorted "name: value" strings,
// since graph node properties cannot hold maps.
func flattenRatings(ratings map[string]string) []string {
	if len(ratings) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ratings))
	for k := range ratings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if ratings[k] == "" {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", k, ratings[k]))
	}
	return out
}
