package search

import (
	"fmt"
	"sort"

	"github.com/materialkai/vision-gateway/internal/entities"
	"github.com/materialkai/vision-gateway/internal/functions"
)

// DefaultScore is assigned when a backend omits every relevance alias.
// Unscored rows therefore rank above genuine 0.8 hits; see DESIGN.md.
const DefaultScore = 0.8

// Envelope keys backends have been observed answering under. The drift is
// theirs; this adapter is the single place that absorbs it.
var envelopeKeys = []string{"results", "matches", "data"}

var titleAliases = []string{"material_name", "name", "title"}
var contentAliases = []string{"description", "content", "text"}
var scoreAliases = []string{"similarity_score", "relevance_score", "score"}
var idAliases = []string{"id", "uuid", "material_id", "document_id"}

// Normalize converts any strategy response into the canonical result list:
// aliased fields resolved in priority order, scores clamped to [0,1], hits
// sorted descending by score with a stable sort, truncated to limit.
func Normalize(resp *functions.Response, mode Mode, limit int) ([]Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("no response to normalize")
	}

	items, err := extractItems(resp.Data)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(items))
	for i, item := range items {
		results = append(results, normalizeItem(item, mode, i))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScore > results[j].SimilarityScore
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func extractItems(data map[string]interface{}) ([]map[string]interface{}, error) {
	if data == nil {
		return nil, nil
	}
	for _, key := range envelopeKeys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		list, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("envelope field '%s' is not a list", key)
		}
		items := make([]map[string]interface{}, 0, len(list))
		for _, el := range list {
			if m, ok := el.(map[string]interface{}); ok {
				items = append(items, m)
			}
		}
		return items, nil
	}
	return nil, fmt.Errorf("response has none of the known envelope fields %v", envelopeKeys)
}

func normalizeItem(item map[string]interface{}, mode Mode, index int) Result {
	r := Result{
		ID:       firstString(item, idAliases),
		Title:    firstString(item, titleAliases),
		Content:  firstString(item, contentAliases),
		Source:   stringField(item, "source"),
		Metadata: mapField(item, "metadata"),
		Type:     resultType(item, mode),
	}
	if r.Title == "" {
		r.Title = fmt.Sprintf("Result %d", index+1)
	}

	if score, ok := firstNumber(item, scoreAliases); ok {
		r.SimilarityScore = clamp01(score)
	} else {
		r.SimilarityScore = DefaultScore
	}

	r.ExtractedEntities = extractEntities(item)
	return r
}

func resultType(item map[string]interface{}, mode Mode) ResultType {
	switch stringField(item, "type") {
	case string(TypeMaterial):
		return TypeMaterial
	case string(TypeKnowledge):
		return TypeKnowledge
	case string(TypePDFContent):
		return TypePDFContent
	}
	// Untyped rows default by strategy: similarity search reads the chunk
	// store, text search reads the knowledge base, the rest are materials.
	switch mode {
	case ModeSimilarity:
		return TypePDFContent
	case ModeText:
		return TypeKnowledge
	default:
		return TypeMaterial
	}
}

func extractEntities(item map[string]interface{}) []entities.EntityData {
	raw, ok := item["extracted_entities"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]entities.EntityData, 0, len(raw))
	for _, el := range raw {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		e := entities.EntityData{
			Type: entities.EntityType(stringField(m, "type")),
			Text: stringField(m, "text"),
		}
		if conf, ok := numberField(m, "confidence"); ok {
			e.Confidence = clamp01(conf)
		}
		if e.Text != "" {
			out = append(out, e)
		}
	}
	return out
}

func firstString(item map[string]interface{}, aliases []string) string {
	for _, key := range aliases {
		if s := stringField(item, key); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(item map[string]interface{}, aliases []string) (float64, bool) {
	for _, key := range aliases {
		if n, ok := numberField(item, key); ok {
			return n, true
		}
	}
	return 0, false
}

func stringField(item map[string]interface{}, key string) string {
	if s, ok := item[key].(string); ok {
		return s
	}
	return ""
}

func numberField(item map[string]interface{}, key string) (float64, bool) {
	switch v := item[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func mapField(item map[string]interface{}, key string) map[string]interface{} {
	if m, ok := item[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
