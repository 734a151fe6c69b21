package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyFiltersMatchEverything(t *testing.T) {
	f := Filters{}
	assert.True(t, f.Empty())
	assert.True(t, f.Matches(nil))
	assert.True(t, f.Matches([]EntityData{{Type: TypeOrg, Text: "Mut"}}))
}

func TestMatchesIsORAcrossCategories(t *testing.T) {
	// Two categories selected; an entity hit in either one is enough.
	f := Filters{
		Materials: []string{"porcelain"},
		People:    []string{"Fran Silvestre"},
	}

	onlyMaterial := []EntityData{{Type: TypeMaterial, Text: "porcelain"}}
	onlyPerson := []EntityData{{Type: TypePerson, Text: "Fran Silvestre"}}
	neither := []EntityData{{Type: TypeMaterial, Text: "oak"}}

	assert.True(t, f.Matches(onlyMaterial), "material hit alone must match")
	assert.True(t, f.Matches(onlyPerson), "person hit alone must match")
	assert.False(t, f.Matches(neither))
}

func TestMatchesIsORWithinCategory(t *testing.T) {
	f := Filters{Materials: []string{"porcelain", "terrazzo"}}

	assert.True(t, f.Matches([]EntityData{{Type: TypeMaterial, Text: "terrazzo"}}))
	assert.False(t, f.Matches([]EntityData{{Type: TypeMaterial, Text: "marble"}}))
}

func TestMatchesRequiresExactTextAndType(t *testing.T) {
	f := Filters{Organizations: []string{"Dsignio"}}

	// Same text under a different entity type does not count.
	assert.False(t, f.Matches([]EntityData{{Type: TypePerson, Text: "Dsignio"}}))
	// Case-sensitive exact match, per the catalog contract.
	assert.False(t, f.Matches([]EntityData{{Type: TypeOrg, Text: "dsignio"}}))
	assert.True(t, f.Matches([]EntityData{{Type: TypeOrg, Text: "Dsignio"}}))
}

func TestMatchesLocations(t *testing.T) {
	f := Filters{Locations: []string{"Valencia"}}
	assert.True(t, f.Matches([]EntityData{
		{Type: TypeDate, Text: "2024"},
		{Type: TypeLocation, Text: "Valencia"},
	}))
}
