package sensor

const (
	KeyBin1 = "karl_1"
	KeyBin2 = "karl_2"
)

// Category is one published bin state and the rules for picking its label.
type Category struct {
	Key           string
	Name          string
	Icon          string
	FallbackDigit string // any label containing it matches
	Aliases       []string
}

// DefaultCategories returns the two bins with the label variants seen across
// the supported municipalities.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:           KeyBin1,
			Name:          "Kärl 1 – nästa tömning",
			Icon:          "mdi:trash-can",
			FallbackDigit: "1",
			Aliases:       []string{"Kärl 1", "Restavfall", "Restavfall (Kärl 1)"},
		},
		{
			Key:           KeyBin2,
			Name:          "Kärl 2 – nästa tömning",
			Icon:          "mdi:food-apple",
			FallbackDigit: "2",
			Aliases:       []string{"Kärl 2", "Matavfall", "Matavfall (Kärl 2)"},
		},
	}
}

// CategoriesWithAliases returns the default categories with aliases replaced
// for every key present in overrides.
func CategoriesWithAliases(overrides map[string][]string) []Category {
	categories := DefaultCategories()
	for i, c := range categories {
		if aliases, ok := overrides[c.Key]; ok && len(aliases) > 0 {
			categories[i].Aliases = append([]string(nil), aliases...)
		}
	}
	return categories
}
