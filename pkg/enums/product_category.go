package enums

import "fmt"

// ProductCategory classifies handcrafted listings for catalog filtering.
type ProductCategory string

const (
	ProductCategoryCeramics  ProductCategory = "ceramics"
	ProductCategoryJewelry   ProductCategory = "jewelry"
	ProductCategoryTextiles  ProductCategory = "textiles"
	ProductCategoryWoodwork  ProductCategory = "woodwork"
	ProductCategoryGlasswork ProductCategory = "glasswork"
	ProductCategoryPrints    ProductCategory = "prints"
	ProductCategoryOther     ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryCeramics,
	ProductCategoryJewelry,
	ProductCategoryTextiles,
	ProductCategoryWoodwork,
	ProductCategoryGlasswork,
	ProductCategoryPrints,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
