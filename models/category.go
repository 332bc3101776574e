package models

// Category is one of the fixed post categories.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryStartup    Category = "Startup"
	CategoryLifestyle  Category = "Lifestyle"
	CategoryFinance    Category = "Finance"
	CategoryHealth     Category = "Health"
	CategoryTravel     Category = "Travel"

	// CategoryAll is a filter value only; posts never carry it.
	CategoryAll Category = "All"
)

var Categories = []Category{
	CategoryTechnology,
	CategoryStartup,
	CategoryLifestyle,
	CategoryFinance,
	CategoryHealth,
	CategoryTravel,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps a filter value to a Category. An empty value means
// CategoryAll; anything else is kept verbatim so an unknown category simply
// matches nothing.
func ParseCategory(s string) Category {
	if s == "" {
		return CategoryAll
	}
	return Category(s)
}
