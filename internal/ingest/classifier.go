package ingest

import (
	"regexp"
	"strings"
)

// ChunkType categorizes a document chunk. Index, sustainability and
// certification content must never become product candidates; catalogs are
// full of it and it used to drown real products.
type ChunkType string

const (
	ChunkProductDescription ChunkType = "product_description"
	ChunkTechnicalSpecs     ChunkType = "technical_specs"
	ChunkVisualShowcase     ChunkType = "visual_showcase"
	ChunkDesignerStory      ChunkType = "designer_story"
	ChunkCollectionOverview ChunkType = "collection_overview"
	ChunkSupportingContent  ChunkType = "supporting_content"
	ChunkIndexContent       ChunkType = "index_content"
	ChunkSustainabilityInfo ChunkType = "sustainability_info"
	ChunkCertificationInfo  ChunkType = "certification_info"
	ChunkUnclassified       ChunkType = "unclassified"
)

type Classification struct {
	Type       ChunkType `json:"chunk_type"`
	Confidence float64   `json:"confidence"`
}

// Content shorter than this carries too little signal to classify.
const minClassifiableLength = 40

// A category must reach this score before it beats supporting_content.
const classifyThreshold = 3

type pattern struct {
	re     *regexp.Regexp
	weight int
}

func patterns(weight int, exprs ...string) []pattern {
	out := make([]pattern, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, pattern{re: regexp.MustCompile(e), weight: weight})
	}
	return out
}

type category struct {
	chunkType ChunkType
	patterns  []pattern
}

// Categories are ordered: on a tie the earlier one wins, so the
// filtering-out categories (index, sustainability, certification) take
// precedence over the content ones.
var categories = []category{
	{
		chunkType: ChunkIndexContent,
		patterns: append(
			// Three or more standalone page-number lines is the strongest
			// table-of-contents signal catalogs produce.
			patterns(3, `table of contents`, `\.{4,}\s*\d+`,
				`(?ms)^\s*\d{1,3}\s*$.*?^\s*\d{1,3}\s*$.*?^\s*\d{1,3}\s*$`),
			append(patterns(2, `\bindex\b`),
				patterns(1, `(?m)^\s*\d{1,3}\s*$`)...)...,
		),
	},
	{
		chunkType: ChunkSustainabilityInfo,
		patterns: append(
			patterns(2, `sustainab`, `sostenibilidad`, `recycled`, `eco-friendly`, `carbon[- ]neutral`, `biodegradable`, `medioambiental`),
			patterns(1, `environment`, `responsible sourcing`)...,
		),
	},
	{
		chunkType: ChunkCertificationInfo,
		patterns: append(
			patterns(2, `quality assurance`, `certificados`, `certifications?\b`, `ce marked`, `iso \d+`),
			patterns(1, `certified`, `compliance`, `ansi`, `bifma`, `tested according`)...,
		),
	},
	{
		chunkType: ChunkTechnicalSpecs,
		patterns: append(
			patterns(3, `technical (specifications?|characteristics)`),
			append(patterns(2, `\d+\s*[×x]\s*\d+`, `\bip\d{2}\b`, `weight capacity`),
				patterns(1, `•`, `\d+\s*(kg|mm|cm)\b`, `resistance`, `material:`)...)...,
		),
	},
	{
		chunkType: ChunkProductDescription,
		patterns: append(
			patterns(2, `available in`, `upholster`, `finishes`, `dimensions:`, `designed for`, `\d+\s*[×x]\s*\d+`),
			patterns(1, `features `, `premium`, `modular`, `seating system`)...,
		),
	},
	{
		chunkType: ChunkDesignerStory,
		patterns: append(
			patterns(2, `designer`, `philosophy`, `inspired by`, `creative process`),
			patterns(1, `studio`, `minimalist`, `design principles`)...,
		),
	},
	{
		chunkType: ChunkCollectionOverview,
		patterns: append(
			patterns(2, `collection`, `comprehensive line`, `presents \d+`),
			patterns(1, `line includes`, `unified by`)...,
		),
	},
	{
		chunkType: ChunkVisualShowcase,
		patterns: append(
			patterns(2, `moodboard`, `image gallery`, `photograph`),
			patterns(1, `showcase`, `visual`, `aesthetic`, `textures`)...,
		),
	},
}

type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify scores the chunk against every category and returns the best
// match. Scoring is presence-based: each matched pattern contributes its
// weight once, so a repeated keyword does not dominate.
func (c *Classifier) Classify(content string) Classification {
	if len(strings.TrimSpace(content)) < minClassifiableLength {
		return Classification{Type: ChunkUnclassified, Confidence: 0}
	}

	lower := strings.ToLower(content)

	best := Classification{Type: ChunkSupportingContent, Confidence: 0.4}
	bestScore := 0
	for _, cat := range categories {
		score := 0
		for _, p := range cat.patterns {
			if p.re.MatchString(lower) {
				score += p.weight
			}
		}
		if score >= classifyThreshold && score > bestScore {
			bestScore = score
			best = Classification{
				Type:       cat.chunkType,
				Confidence: scoreConfidence(score),
			}
		}
	}
	return best
}

func scoreConfidence(score int) float64 {
	conf := 0.5 + 0.05*float64(score)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// IsProductCandidate is the stage-1 filter of product detection: long
// enough, and classified as product content.
func (c *Classifier) IsProductCandidate(content string, minLength int) bool {
	if len(strings.TrimSpace(content)) < minLength {
		return false
	}
	return c.Classify(content).Type == ChunkProductDescription
}
