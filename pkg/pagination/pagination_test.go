package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest_Defaults(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.Offset)
}

func TestFromRequest_CustomValues(t *testing.T) {
	p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/catalog?page=3&per_page=50", nil))

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset)
}

func TestFromRequest_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative page", "page=-1"},
		{"zero page", "page=0"},
		{"non numeric page", "page=abc"},
		{"per_page above cap", "per_page=200"},
		{"zero per_page", "per_page=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/catalog?"+tt.query, nil))
			assert.Equal(t, 1, p.Page)
			assert.Equal(t, defaultPerPage, p.PerPage)
		})
	}
}

func TestNewResult_PageMath(t *testing.T) {
	r := NewResult([]int{1, 2}, 5, Params{Page: 2, PerPage: 2, Offset: 2})

	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestNewResult_EmptyDataIsNotNil(t *testing.T) {
	r := NewResult[int](nil, 0, DefaultParams())

	assert.NotNil(t, r.Data)
	assert.Equal(t, 0, r.TotalPages)
	assert.False(t, r.HasNext)
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	first := Slice(all, Params{Page: 1, PerPage: 2, Offset: 0})
	assert.Equal(t, []int{1, 2}, first.Data)
	assert.Equal(t, 5, first.TotalCount)

	last := Slice(all, Params{Page: 3, PerPage: 2, Offset: 4})
	assert.Equal(t, []int{5}, last.Data)
	assert.False(t, last.HasNext)

	beyond := Slice(all, Params{Page: 9, PerPage: 2, Offset: 16})
	assert.Empty(t, beyond.Data)

	zero := Slice(all, Params{})
	assert.Equal(t, all, zero.Data)
	assert.Equal(t, 1, zero.Page)

	derived := Slice(all, Params{Page: 2, PerPage: 2})
	assert.Equal(t, []int{3, 4}, derived.Data)
}
