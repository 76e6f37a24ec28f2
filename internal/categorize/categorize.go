// Package categorize assigns a category slug to a reward from its title
// and description, for creators who don't pick one themselves.
package categorize

import "strings"

// Suggest returns the category slug for the given reward title and
// description. Matching is case-insensitive: whole-title match first, then
// keyword match over title and description. Falls back to "other".
func Suggest(title, description string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	if name == "" {
		return "other"
	}

	if slug, ok := exactMatch[name]; ok {
		return slug
	}

	// Keyword pass, ordered more-specific first.
	text := name + " " + strings.ToLower(description)
	for _, entry := range keywordMatches {
		if strings.Contains(text, entry.keyword) {
			return entry.slug
		}
	}

	return "other"
}

var exactMatch = map[string]string{
	// Food & Drink
	"coffee":    "food-drink",
	"lunch":     "food-drink",
	"dinner":    "food-drink",
	"breakfast": "food-drink",
	"pizza":     "food-drink",
	"dessert":   "food-drink",

	// Entertainment
	"movie":   "entertainment",
	"cinema":  "entertainment",
	"concert": "entertainment",
	"game":    "entertainment",

	// Travel
	"flight": "travel",
	"hotel":  "travel",
	"taxi":   "travel",

	// Services
	"haircut": "services",
	"massage": "services",
	"carwash": "services",
}

type keywordEntry struct {
	keyword string
	slug    string
}

var keywordMatches = []keywordEntry{
	// Food & Drink
	{"restaurant", "food-drink"},
	{"coffee", "food-drink"},
	{"espresso", "food-drink"},
	{"latte", "food-drink"},
	{"pizza", "food-drink"},
	{"burger", "food-drink"},
	{"sushi", "food-drink"},
	{"bakery", "food-drink"},
	{"smoothie", "food-drink"},
	{"cocktail", "food-drink"},
	{"brunch", "food-drink"},
	{"lunch", "food-drink"},
	{"dinner", "food-drink"},
	{"breakfast", "food-drink"},
	{"dessert", "food-drink"},
	{"ice cream", "food-drink"},
	{"drink", "food-drink"},
	{"meal", "food-drink"},
	{"snack", "food-drink"},

	// Entertainment
	{"movie", "entertainment"},
	{"cinema", "entertainment"},
	{"theater", "entertainment"},
	{"theatre", "entertainment"},
	{"concert", "entertainment"},
	{"festival", "entertainment"},
	{"museum", "entertainment"},
	{"bowling", "entertainment"},
	{"karaoke", "entertainment"},
	{"arcade", "entertainment"},
	{"streaming", "entertainment"},
	{"video game", "entertainment"},
	{"board game", "entertainment"},
	{"ticket", "entertainment"},

	// Shopping
	{"gift card", "shopping"},
	{"voucher", "shopping"},
	{"discount", "shopping"},
	{"store credit", "shopping"},
	{"bookstore", "shopping"},
	{"clothing", "shopping"},
	{"sneaker", "shopping"},
	{"electronics", "shopping"},

	// Travel
	{"flight", "travel"},
	{"airline", "travel"},
	{"hotel", "travel"},
	{"hostel", "travel"},
	{"road trip", "travel"},
	{"train", "travel"},
	{"taxi", "travel"},
	{"ride share", "travel"},
	{"weekend getaway", "travel"},
	{"camping", "travel"},

	// Services
	{"haircut", "services"},
	{"barber", "services"},
	{"salon", "services"},
	{"massage", "services"},
	{"spa", "services"},
	{"car wash", "services"},
	{"cleaning", "services"},
	{"tutoring", "services"},
	{"babysitting", "services"},
	{"dog walking", "services"},
	{"lawn", "services"},
	{"repair", "services"},
}
