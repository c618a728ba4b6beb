package bybit

import "fmt"

// Category is the product line a V5 market endpoint is queried for.
type Category string

const (
	CategorySpot    Category = "spot"
	CategoryLinear  Category = "linear"
	CategoryInverse Category = "inverse"
	CategoryOption  Category = "option"
)

// DefaultBaseURL is the mainnet REST host.
const DefaultBaseURL = "https://api.bybit.com"

var validCategories = map[Category]struct{}{
	CategorySpot:    {},
	CategoryLinear:  {},
	CategoryInverse: {},
	CategoryOption:  {},
}

// IsValid checks if the Category is one Bybit accepts
func (c Category) IsValid() bool {
	_, ok := validCategories[c]
	return ok
}

// ParseCategory parses a string into a valid Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return c, nil
}
