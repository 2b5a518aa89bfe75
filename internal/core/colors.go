package core

// DefaultCategoryColor is used for categories outside the enumeration.
const DefaultCategoryColor = "#3b82f6"

var categoryColors = map[Category]string{
	Food:           "#4f46e5",
	Transportation: "#0ea5e9",
	Utilities:      "#3b82f6",
	Entertainment:  "#8b5cf6",
	Shopping:       "#ec4899",
	Health:         "#10b981",
	Education:      "#f59e0b",
	Other:          "#6b7280",
}

// CategoryColor returns the chart color for c.
func CategoryColor(c Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return DefaultCategoryColor
}
