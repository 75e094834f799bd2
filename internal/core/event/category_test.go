package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCategoryKnownLabels(t *testing.T) {
	for _, c := range Categories() {
		resolved, known := ResolveCategory(c.ID)
		assert.True(t, known, "category %s should resolve", c.ID)
		assert.Equal(t, c.BuildingID, resolved.BuildingID)
	}
}

func TestResolveCategoryNormalizesLabel(t *testing.T) {
	resolved, known := ResolveCategory("  Research ")
	assert.True(t, known)
	assert.Equal(t, "research", resolved.ID)

	resolved, known = ResolveCategory("TOOLS")
	assert.True(t, known)
	assert.Equal(t, "b6", resolved.BuildingID)
}

func TestResolveCategoryUnknownFallsBackToNews(t *testing.T) {
	resolved, known := ResolveCategory("astrology")
	assert.False(t, known)
	assert.Equal(t, DefaultCategory().ID, resolved.ID)
	assert.Equal(t, "news", resolved.ID)

	resolved, known = ResolveCategory("")
	assert.False(t, known)
	assert.Equal(t, "news", resolved.ID)
}

func TestCategoriesIsStable(t *testing.T) {
	first := Categories()
	first[0].Label = "mutated"

	second := Categories()
	require.Equal(t, "News Tower", second[0].Label)
	assert.Len(t, second, 6)

	seen := make(map[string]bool)
	for _, c := range second {
		assert.False(t, seen[c.BuildingID], "building id %s reused", c.BuildingID)
		seen[c.BuildingID] = true
	}
}
