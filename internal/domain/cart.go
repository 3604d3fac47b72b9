package domain

import "github.com/shopspring/decimal"

// CartLine is one cart entry. Size is "" when the product has no variant.
// A cart holds at most one line per (ProductID, Size) and Qty is always >= 1.
type CartLine struct {
	ProductID int    `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Qty       int    `json:"qty"`
}

// Matches reports whether the line is keyed by productID and size.
func (l CartLine) Matches(productID int, size string) bool {
	return l.ProductID == productID && l.Size == size
}

// FindLine returns the index of the line keyed by (productID, size), or -1.
func FindLine(lines []CartLine, productID int, size string) int {
	for i := range lines {
		if lines[i].Matches(productID, size) {
			return i
		}
	}
	return -1
}

// LineItem is a cart line resolved against the catalog.
type LineItem struct {
	Product   Product         `json:"product"`
	Size      string          `json:"size,omitempty"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSummary is the priced view of a cart. ItemCount counts distinct lines;
// Units sums quantities.
type CartSummary struct {
	Lines     []LineItem      `json:"lines"`
	ItemCount int             `json:"item_count"`
	Units     int             `json:"units"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
