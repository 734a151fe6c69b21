package search

import (
	"fmt"

	"github.com/materialkai/vision-gateway/internal/entities"
)

// Mode selects the remote search strategy.
type Mode string

const (
	ModeText       Mode = "text"
	ModeVisual     Mode = "visual"
	ModeHybrid     Mode = "hybrid"
	ModeSimilarity Mode = "similarity"
)

// ResultType tells the caller which backing collection a hit came from.
type ResultType string

const (
	TypeMaterial   ResultType = "material"
	TypeKnowledge  ResultType = "knowledge"
	TypePDFContent ResultType = "pdf_content"
)

// Query is a single user search action. Immutable once dispatched.
type Query struct {
	Text      string           `json:"text"`
	Image     string           `json:"image"` // base64 payload, empty when absent
	Mode      Mode             `json:"mode"`
	Filters   entities.Filters `json:"filters"`
	Threshold float64          `json:"threshold"`
	Limit     int              `json:"limit"`
	// Surface tags the UI surface issuing the query so stale responses for
	// that surface can be discarded.
	Surface string `json:"surface"`
}

// Result is the one canonical hit shape, whatever the backend returned.
type Result struct {
	ID                string                 `json:"id"`
	Title             string                 `json:"title"`
	Content           string                 `json:"content"`
	Type              ResultType             `json:"type"`
	SimilarityScore   float64                `json:"similarity_score"`
	Source            string                 `json:"source"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	ExtractedEntities []entities.EntityData  `json:"extracted_entities,omitempty"`
}

// ErrEmptyQuery is the validation failure for a query with neither text nor
// image. It never reaches the network.
var ErrEmptyQuery = fmt.Errorf("search requires a text query or an image")

// ClassifyMode picks the strategy for a query. An explicit similarity mode
// is passed through; otherwise: image and text means hybrid, image alone
// means visual, text alone means text. Neither is rejected.
func ClassifyMode(q Query) (Mode, error) {
	if q.Mode == ModeSimilarity {
		return ModeSimilarity, nil
	}
	hasText := q.Text != ""
	hasImage := q.Image != ""
	switch {
	case hasText && hasImage:
		return ModeHybrid, nil
	case hasImage:
		return ModeVisual, nil
	case hasText:
		return ModeText, nil
	default:
		return "", ErrEmptyQuery
	}
}

// ApplyEntityFilters returns the subset of results passing the filters.
// All-empty filters are the identity: the input slice itself, untouched.
func ApplyEntityFilters(results []Result, filters entities.Filters) []Result {
	if filters.Empty() {
		return results
	}
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if filters.Matches(r.ExtractedEntities) {
			out = append(out, r)
		}
	}
	return out
}
