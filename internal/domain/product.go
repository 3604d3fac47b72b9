package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups catalog products.
type Category string

const (
	CategoryAll         Category = "All"
	CategoryShoes       Category = "Shoes"
	CategoryGear        Category = "Gear"
	CategoryRecovery    Category = "Recovery"
	CategoryNutrition   Category = "Nutrition"
	CategoryApparel     Category = "Apparel"
	CategoryAccessories Category = "Accessories"
)

// Categories lists the concrete categories in display order. CategoryAll is
// a filter sentinel and is not included.
var Categories = []Category{
	CategoryShoes,
	CategoryGear,
	CategoryRecovery,
	CategoryNutrition,
	CategoryApparel,
	CategoryAccessories,
}

// Valid reports whether c is a concrete category.
func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// ParseCategory resolves a case-insensitive category name. The empty string
// and "all" resolve to CategoryAll.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(CategoryAll)) {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Product is an immutable catalog entry.
type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Rating      int             `json:"rating"`
	Image       string          `json:"image"`
	Gallery     []string        `json:"gallery"`
	SoldCount   int             `json:"sold_count"`
	Views       int             `json:"views"`
	ETADays     int             `json:"eta_days"`
	Description string          `json:"description"`
	Specs       []string        `json:"specs"`
	InStock     bool            `json:"in_stock"`
	Badges      []string        `json:"badges"`
	Sizes       []string        `json:"sizes,omitempty"`
}

// HasSizes reports whether the product has a size dimension.
func (p Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

// HasSize reports whether size is one of the product's declared sizes.
func (p Product) HasSize(size string) bool {
	return slices.Contains(p.Sizes, size)
}

// DefaultSize is the first declared size, or "" when the product has none.
func (p Product) DefaultSize() string {
	if len(p.Sizes) == 0 {
		return ""
	}
	return p.Sizes[0]
}

// Validate checks the product invariants.
func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return fmt.Errorf("product id must be positive, got %d", p.ID)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("product %d: name is required", p.ID)
	case !p.Category.Valid():
		return fmt.Errorf("product %d: unknown category %q", p.ID, p.Category)
	case p.Price.IsNegative():
		return fmt.Errorf("product %d: price must not be negative", p.ID)
	case p.Rating < 1 || p.Rating > 5:
		return fmt.Errorf("product %d: rating must be between 1 and 5, got %d", p.ID, p.Rating)
	case len(p.Gallery) == 0:
		return fmt.Errorf("product %d: gallery must not be empty", p.ID)
	case p.SoldCount < 0 || p.Views < 0:
		return fmt.Errorf("product %d: counters must not be negative", p.ID)
	case p.ETADays <= 0:
		return fmt.Errorf("product %d: eta days must be positive, got %d", p.ID, p.ETADays)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate catalog slices.
func (p Product) Clone() Product {
	p.Gallery = slices.Clone(p.Gallery)
	p.Specs = slices.Clone(p.Specs)
	p.Badges = slices.Clone(p.Badges)
	p.Sizes = slices.Clone(p.Sizes)
	return p
}
