// Package catalog holds the frozen product catalog.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kreedentials/store/internal/domain"
)

// Catalog is an immutable, ordered product list. It is safe for concurrent
// use because nothing mutates it after New returns.
type Catalog struct {
	products []domain.Product
	byID     map[int]int
}

// New validates products and freezes a copy of them in the given order.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate product id %d", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p.Clone())
	}
	return c, nil
}

// MustNew is New for static data; it panics on invalid input.
func MustNew(products []domain.Product) *Catalog {
	c, err := New(products)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile reads a JSON array of products.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}
	return New(products)
}

// Get returns the product with the given id.
func (c *Catalog) Get(id int) (domain.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i].Clone(), true
}

// Contains reports whether id references a catalog product.
func (c *Catalog) Contains(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Products returns every product in catalog order.
func (c *Catalog) Products() []domain.Product {
	out := make([]domain.Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.Clone()
	}
	return out
}

// Categories returns the filterable categories, CategoryAll first.
func (c *Catalog) Categories() []domain.Category {
	return append([]domain.Category{domain.CategoryAll}, domain.Categories...)
}

// Filter returns, in catalog order, the products in category (or every
// category for CategoryAll) whose name contains the trimmed search text,
// case-insensitively. Blank text matches everything in the category.
func (c *Catalog) Filter(category domain.Category, text string) []domain.Product {
	needle := strings.ToLower(strings.TrimSpace(text))
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if category != domain.CategoryAll && p.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}
