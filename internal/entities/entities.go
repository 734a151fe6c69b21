package entities

// EntityType labels a named entity extracted from catalog content.
type EntityType string

const (
	TypeMaterial EntityType = "MATERIAL"
	TypeOrg      EntityType = "ORG"
	TypeLocation EntityType = "LOCATION"
	TypePerson   EntityType = "PERSON"
	TypeDate     EntityType = "DATE"
)

// EntityData is a single extracted entity. Read-only on this side of the
// platform; extraction happens at ingestion time.
type EntityData struct {
	Type       EntityType `json:"type"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
}

// Filters holds the user's facet selections, one set of exact-match strings
// per category.
type Filters struct {
	Materials     []string `json:"materials"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	People        []string `json:"people"`
}

func (f Filters) Empty() bool {
	return len(f.Materials) == 0 &&
		len(f.Organizations) == 0 &&
		len(f.Locations) == 0 &&
		len(f.People) == 0
}

// selections pairs each non-empty category with the entity type it matches
// against.
func (f Filters) selections() map[EntityType][]string {
	sel := make(map[EntityType][]string, 4)
	if len(f.Materials) > 0 {
		sel[TypeMaterial] = f.Materials
	}
	if len(f.Organizations) > 0 {
		sel[TypeOrg] = f.Organizations
	}
	if len(f.Locations) > 0 {
		sel[TypeLocation] = f.Locations
	}
	if len(f.People) > 0 {
		sel[TypePerson] = f.People
	}
	return sel
}

// Matches reports whether a result with the given extracted entities passes
// the filter. The rule is OR across categories and OR within a category: any
// selected entity, in any non-empty category, present among the extracted
// entities is enough. Never AND across categories.
func (f Filters) Matches(extracted []EntityData) bool {
	if f.Empty() {
		return true
	}
	sel := f.selections()
	for _, e := range extracted {
		wanted, ok := sel[e.Type]
		if !ok {
			continue
		}
		for _, w := range wanted {
			if e.Text == w {
				return true
			}
		}
	}
	return false
}
