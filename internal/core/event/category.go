package event

import "strings"

// Category is one fixed sorting bucket and the building that receives it.
// The set is closed; classification labels outside it resolve to the news
// bucket so a bad label never stalls the run.
type Category struct {
	ID         string `json:"id"`
	BuildingID string `json:"building_id"`
	Label      string `json:"label"`
	Color      string `json:"color"`
}

var categories = []Category{
	{ID: "news", BuildingID: "b1", Label: "News Tower", Color: "#FF6B6B"},
	{ID: "research", BuildingID: "b2", Label: "Research Lab", Color: "#4ECDC4"},
	{ID: "product", BuildingID: "b3", Label: "Product Plaza", Color: "#FFD93D"},
	{ID: "tutorial", BuildingID: "b4", Label: "Tutorial Hall", Color: "#6BCB77"},
	{ID: "opinion", BuildingID: "b5", Label: "Opinion House", Color: "#B39DDB"},
	{ID: "tools", BuildingID: "b6", Label: "Tools Workshop", Color: "#4D96FF"},
}

// Categories returns the fixed bucket table in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// DefaultCategory returns the fallback bucket for unknown labels.
func DefaultCategory() Category {
	return categories[0]
}

// ResolveCategory maps a classification label to its bucket. The second
// return is false when the label was unknown and the default was applied.
func ResolveCategory(label string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	for _, c := range categories {
		if c.ID == key {
			return c, true
		}
	}
	return DefaultCategory(), false
}
