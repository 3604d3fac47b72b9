// Package engine implements the storefront state machine: catalog filtering,
// the wishlist, the cart and the product detail selection. An Engine holds
// one shopper's state; it is not safe for concurrent use.
package engine

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kreedentials/store/internal/catalog"
	"github.com/kreedentials/store/internal/domain"
	apperrors "github.com/kreedentials/store/pkg/errors"
)

// Engine is the explicit state container for one storefront session.
type Engine struct {
	catalog *catalog.Catalog
	now     func() time.Time

	favorites []int
	cart      []domain.CartLine
	detail    *domain.DetailSelection
	cartOpen  bool

	// meta carries the session identity and bookkeeping through a
	// restore/snapshot cycle untouched.
	meta domain.Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for delivery estimates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithFavorites sets the initial wishlist. Unknown and duplicate ids are
// dropped.
func WithFavorites(ids ...int) Option {
	return func(e *Engine) { e.favorites = slices.Clone(ids) }
}

// WithCartLines sets the initial cart. Lines for unknown products or with a
// quantity below 1 are dropped; duplicate keys are merged.
func WithCartLines(lines ...domain.CartLine) Option {
	return func(e *Engine) { e.cart = slices.Clone(lines) }
}

// FromSession restores the state held in a session snapshot.
func FromSession(s *domain.Session) Option {
	return func(e *Engine) {
		e.meta = *s.Clone()
		e.favorites = e.meta.Favorites
		e.cart = e.meta.Cart
		e.detail = e.meta.Detail
		e.cartOpen = e.meta.CartOpen
	}
}

// New creates an engine over cat. With no options the wishlist and cart are
// empty, no product is open and the cart view is closed.
func New(cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: cat, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	e.normalize()
	return e
}

// normalize restores the invariants after loading external state: every
// favorite and cart line references a catalog product, favorites are unique,
// cart keys are unique with qty >= 1, and the detail selection is in range.
func (e *Engine) normalize() {
	favorites := make([]int, 0, len(e.favorites))
	for _, id := range e.favorites {
		if e.catalog.Contains(id) && !slices.Contains(favorites, id) {
			favorites = append(favorites, id)
		}
	}
	e.favorites = favorites

	cart := make([]domain.CartLine, 0, len(e.cart))
	for _, l := range e.cart {
		if l.Qty < 1 || !e.catalog.Contains(l.ProductID) {
			continue
		}
		if i := domain.FindLine(cart, l.ProductID, l.Size); i >= 0 {
			cart[i].Qty = addQty(cart[i].Qty, l.Qty)
			continue
		}
		cart = append(cart, l)
	}
	e.cart = cart

	if e.detail != nil {
		p, ok := e.catalog.Get(e.detail.ProductID)
		switch {
		case !ok:
			e.detail = nil
		default:
			if e.detail.ImageIndex < 0 || e.detail.ImageIndex >= len(p.Gallery) {
				e.detail.ImageIndex = 0
			}
			if e.detail.Size != "" && !p.HasSize(e.detail.Size) {
				e.detail.Size = p.DefaultSize()
			}
			e.detail.Qty = max(e.detail.Qty, 1)
		}
	}
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// FilterCatalog returns the catalog products in category (or all categories
// for domain.CategoryAll) whose name contains text, in catalog order.
func (e *Engine) FilterCatalog(category domain.Category, text string) []domain.Product {
	return e.catalog.Filter(category, text)
}

// ToggleFavorite adds id to the wishlist, or removes it when present. It
// reports whether anything changed; unknown ids are ignored.
func (e *Engine) ToggleFavorite(id int) bool {
	if !e.catalog.Contains(id) {
		return false
	}
	if i := slices.Index(e.favorites, id); i >= 0 {
		e.favorites = slices.Delete(e.favorites, i, i+1)
		return true
	}
	e.favorites = append(e.favorites, id)
	return true
}

// IsFavorite reports whether id is on the wishlist.
func (e *Engine) IsFavorite(id int) bool {
	return slices.Contains(e.favorites, id)
}

// Favorites returns the wishlist ids in insertion order.
func (e *Engine) Favorites() []int {
	return slices.Clone(e.favorites)
}

// WishlistProducts returns the favorited products in catalog order.
func (e *Engine) WishlistProducts() []domain.Product {
	out := make([]domain.Product, 0, len(e.favorites))
	for _, p := range e.catalog.Products() {
		if e.IsFavorite(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// OpenDetail opens p in the detail panel with the first image, a pending
// quantity of 1 and the first declared size selected.
func (e *Engine) OpenDetail(p domain.Product) domain.DetailSelection {
	e.detail = &domain.DetailSelection{
		ProductID:  p.ID,
		ImageIndex: 0,
		Size:       p.DefaultSize(),
		Qty:        1,
	}
	return *e.detail
}

// CloseDetail clears the detail panel.
func (e *Engine) CloseDetail() {
	e.detail = nil
}

// Detail returns the current selection, if a product is open.
func (e *Engine) Detail() (domain.DetailSelection, bool) {
	if e.detail == nil {
		return domain.DetailSelection{}, false
	}
	return *e.detail, true
}

func (e *Engine) openProduct() (domain.Product, bool) {
	if e.detail == nil {
		return domain.Product{}, false
	}
	return e.catalog.Get(e.detail.ProductID)
}

// SelectGalleryImage shows image i of the open product. Out-of-range indexes
// and a closed panel leave the selection unchanged.
func (e *Engine) SelectGalleryImage(i int) bool {
	p, ok := e.openProduct()
	if !ok || i < 0 || i >= len(p.Gallery) {
		return false
	}
	e.detail.ImageIndex = i
	return true
}

// SelectVariant selects size when the open product declares it.
func (e *Engine) SelectVariant(size string) bool {
	p, ok := e.openProduct()
	if !ok || !p.HasSize(size) {
		return false
	}
	e.detail.Size = size
	return true
}

// SetPendingQty sets the detail panel quantity, clamped to at least 1.
func (e *Engine) SetPendingQty(qty int) {
	if e.detail == nil {
		return
	}
	e.detail.Qty = max(qty, 1)
}

// AddToCart adds qty of p in size, merging into an existing line with the
// same key, and reveals the cart view. Stock and sizes are checked against
// the catalog copy of p; a product missing from the catalog is ignored.
func (e *Engine) AddToCart(product domain.Product, qty int, size string) error {
	p, ok := e.catalog.Get(product.ID)
	if !ok {
		return nil
	}
	if qty <= 0 {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be greater than 0, got %d", qty))
	}
	if !p.InStock {
		return apperrors.InvalidOperation(fmt.Sprintf("product %d is out of stock", p.ID))
	}
	if size != "" && !p.HasSize(size) {
		return apperrors.InvalidInput(fmt.Sprintf("size %q is not offered for product %d", size, p.ID))
	}

	if i := domain.FindLine(e.cart, p.ID, size); i >= 0 {
		e.cart[i].Qty = addQty(e.cart[i].Qty, qty)
	} else {
		e.cart = append(e.cart, domain.CartLine{ProductID: p.ID, Size: size, Qty: qty})
	}
	e.cartOpen = true
	return nil
}

// AddSelectionToCart adds the open product with the pending quantity and
// selected size.
func (e *Engine) AddSelectionToCart() error {
	p, ok := e.openProduct()
	if !ok {
		return apperrors.InvalidOperation("no product is open")
	}
	return e.AddToCart(p, e.detail.Qty, e.detail.Size)
}

// UpdateCartQty changes the quantity of the (productID, size) line by delta.
// A resulting quantity below 1 removes the line. It reports whether a line
// matched.
func (e *Engine) UpdateCartQty(productID int, size string, delta int) bool {
	i := domain.FindLine(e.cart, productID, size)
	if i < 0 {
		return false
	}
	if q := addQty(e.cart[i].Qty, delta); q >= 1 {
		e.cart[i].Qty = q
	} else {
		e.cart = slices.Delete(e.cart, i, i+1)
	}
	return true
}

// RemoveFromCart deletes the (productID, size) line. It reports whether a
// line matched.
func (e *Engine) RemoveFromCart(productID int, size string) bool {
	i := domain.FindLine(e.cart, productID, size)
	if i < 0 {
		return false
	}
	e.cart = slices.Delete(e.cart, i, i+1)
	return true
}

// ClearCart removes every line.
func (e *Engine) ClearCart() {
	e.cart = e.cart[:0]
}

// CartLines returns the raw cart lines in insertion order.
func (e *Engine) CartLines() []domain.CartLine {
	return slices.Clone(e.cart)
}

// CartOpen reports whether the cart view is shown.
func (e *Engine) CartOpen() bool {
	return e.cartOpen
}

// SetCartOpen shows or hides the cart view.
func (e *Engine) SetCartOpen(open bool) {
	e.cartOpen = open
}

// CartSummary prices the cart against the catalog. Lines keep insertion
// order; the subtotal is rounded to cents.
func (e *Engine) CartSummary() domain.CartSummary {
	s := domain.CartSummary{
		Lines:    make([]domain.LineItem, 0, len(e.cart)),
		Subtotal: decimal.Zero,
	}
	for _, l := range e.cart {
		p, ok := e.catalog.Get(l.ProductID)
		if !ok {
			continue
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
		s.Lines = append(s.Lines, domain.LineItem{Product: p, Size: l.Size, Qty: l.Qty, LineTotal: total})
		s.Units = addQty(s.Units, l.Qty)
		s.Subtotal = s.Subtotal.Add(total)
	}
	s.ItemCount = len(s.Lines)
	s.Subtotal = s.Subtotal.Round(2)
	return s
}

// Snapshot exports the engine state merged into the session it was restored
// from (or a zero session).
func (e *Engine) Snapshot() *domain.Session {
	s := e.meta
	s.Favorites = slices.Clone(e.favorites)
	s.Cart = slices.Clone(e.cart)
	s.CartOpen = e.cartOpen
	s.Detail = nil
	if e.detail != nil {
		d := *e.detail
		s.Detail = &d
	}
	return &s
}

// addQty returns qty+delta, saturating at math.MaxInt.
func addQty(qty, delta int) int {
	if delta > 0 && qty > math.MaxInt-delta {
		return math.MaxInt
	}
	return qty + delta
}
