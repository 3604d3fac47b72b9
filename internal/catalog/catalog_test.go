package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreedentials/store/internal/domain"
)

func ids(products []domain.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestSeed(t *testing.T) {
	c := Seed()
	require.Equal(t, 4, c.Len())

	shoes, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "HyperSprint Carbon V2 Shoes", shoes.Name)
	assert.Equal(t, "149.99", shoes.Price.StringFixed(2))
	assert.Len(t, shoes.Gallery, 3)
	assert.Equal(t, shoes.Gallery[0], shoes.Image)
	assert.Len(t, shoes.Sizes, 6)

	gloves, _ := c.Get(2)
	assert.False(t, gloves.HasSizes())
}

func TestNew_RejectsInvalid(t *testing.T) {
	products := SeedProducts()
	products[1].ID = products[0].ID
	_, err := New(products)
	assert.ErrorContains(t, err, "duplicate product id")

	products = SeedProducts()
	products[2].Rating = 9
	_, err = New(products)
	assert.ErrorContains(t, err, "rating")
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := Seed()
	p, _ := c.Get(1)
	p.Sizes[0] = "US 99"

	again, _ := c.Get(1)
	assert.Equal(t, "US 7", again.Sizes[0])

	_, ok := c.Get(42)
	assert.False(t, ok)
	assert.False(t, c.Contains(42))
}

func TestCategories(t *testing.T) {
	cats := Seed().Categories()
	require.Len(t, cats, 7)
	assert.Equal(t, domain.CategoryAll, cats[0])
	assert.Equal(t, domain.CategoryShoes, cats[1])
	assert.Equal(t, domain.CategoryAccessories, cats[6])
}

func TestFilter(t *testing.T) {
	c := Seed()

	tests := []struct {
		name     string
		category domain.Category
		text     string
		want     []int
	}{
		{"all, blank text", domain.CategoryAll, "", []int{1, 2, 3, 4}},
		{"all, whitespace text", domain.CategoryAll, "   ", []int{1, 2, 3, 4}},
		{"category only", domain.CategoryRecovery, "", []int{3}},
		{"case-insensitive substring", domain.CategoryAll, "  SPRINT ", []int{1}},
		{"matches several in order", domain.CategoryAll, "e", []int{1, 2, 3, 4}},
		{"category and text disagree", domain.CategoryGear, "drink", []int{}},
		{"empty category", domain.CategoryApparel, "", []int{}},
		{"text matches name only", domain.CategoryAll, "electrolyte", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(c.Filter(tt.category, tt.text)))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": 7, "name": "Speed Rope", "category": "Accessories", "price": 19.5,
		 "rating": 4, "image": "r.jpg", "gallery": ["r.jpg"], "eta_days": 1, "in_stock": true}
	]`), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	p, ok := c.Get(7)
	require.True(t, ok)
	assert.Equal(t, "19.50", p.Price.StringFixed(2))

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
