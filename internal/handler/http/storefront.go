package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreedentials/store/internal/service"
	"github.com/kreedentials/store/pkg/httputil"
	"github.com/kreedentials/store/pkg/pagination"
	"github.com/kreedentials/store/pkg/validator"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// StorefrontHandler handles HTTP requests for catalog and session endpoints.
type StorefrontHandler struct {
	service *service.StorefrontService
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(svc *service.StorefrontService, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// OpenDetailRequest is the JSON request body for opening the detail panel.
type OpenDetailRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

// UpdateDetailRequest is the JSON request body for changing the detail
// selection. Omitted fields are left unchanged. Qty is clamped to at least 1.
type UpdateDetailRequest struct {
	ImageIndex *int    `json:"image_index" validate:"omitempty,gte=0"`
	Size       *string `json:"size" validate:"omitempty,max=32"`
	Qty        *int    `json:"qty"`
}

// AddToCartRequest is the JSON request body for adding a product to the cart.
// Qty defaults to 1.
type AddToCartRequest struct {
	ProductID int    `json:"product_id" validate:"required,gt=0"`
	Qty       *int   `json:"qty" validate:"omitempty,lte=99"`
	Size      string `json:"size" validate:"max=32"`
}

// UpdateCartQtyRequest is the JSON request body for changing a line quantity.
// A zero delta leaves the line unchanged.
type UpdateCartQtyRequest struct {
	Delta int `json:"delta" validate:"min=-99,max=99"`
}

// CartVisibilityRequest is the JSON request body for showing or hiding the cart.
type CartVisibilityRequest struct {
	Open *bool `json:"open" validate:"required"`
}

// --- Catalog ---

// ListCatalog handles GET /api/v1/catalog
func (h *StorefrontHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.Catalog(r.Context(), service.CatalogQuery{
		Category: q.Get("category"),
		Text:     q.Get("q"),
		Page:     pagination.FromRequest(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ListCategories handles GET /api/v1/catalog/categories
func (h *StorefrontHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Categories()})
}

// GetProduct handles GET /api/v1/catalog/{productId}
func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	p, err := h.service.Product(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// GetDeliveryEstimate handles GET /api/v1/catalog/{productId}/delivery
func (h *StorefrontHandler) GetDeliveryEstimate(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	est, err := h.service.DeliveryEstimate(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: est})
}

// --- Store state ---

// GetStore handles GET /api/v1/store
func (h *StorefrontHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), shopperFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GetWishlist handles GET /api/v1/store/wishlist
func (h *StorefrontHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Wishlist(r.Context(), shopperFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// ToggleFavorite handles POST /api/v1/store/wishlist/{productId}/toggle
func (h *StorefrontHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	res, err := h.service.ToggleFavorite(r.Context(), shopperFromRequest(r), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// --- Detail panel ---

// OpenDetail handles PUT /api/v1/store/detail
func (h *StorefrontHandler) OpenDetail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req OpenDetailRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	d, err := h.service.OpenDetail(r.Context(), shopperFromRequest(r), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: d})
}

// UpdateDetail handles PATCH /api/v1/store/detail
func (h *StorefrontHandler) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateDetailRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	d, err := h.service.UpdateDetail(r.Context(), shopperFromRequest(r), service.DetailUpdate{
		ImageIndex: req.ImageIndex,
		Size:       req.Size,
		Qty:        req.Qty,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: d})
}

// CloseDetail handles DELETE /api/v1/store/detail
func (h *StorefrontHandler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CloseDetail(r.Context(), shopperFromRequest(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddSelectionToCart handles POST /api/v1/store/detail/cart
func (h *StorefrontHandler) AddSelectionToCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.AddSelectionToCart(r.Context(), shopperFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// --- Cart ---

// GetCart handles GET /api/v1/store/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.CartSummary(r.Context(), shopperFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// ClearCart handles DELETE /api/v1/store/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), shopperFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// SetCartVisibility handles PUT /api/v1/store/cart/visibility
func (h *StorefrontHandler) SetCartVisibility(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CartVisibilityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.SetCartOpen(r.Context(), shopperFromRequest(r), *req.Open)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddToCart handles POST /api/v1/store/cart/items
func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req AddToCartRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	cart, err := h.service.AddToCart(r.Context(), shopperFromRequest(r), service.AddToCartInput{
		ProductID: req.ProductID,
		Qty:       qty,
		Size:      req.Size,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// UpdateCartQty handles PATCH /api/v1/store/cart/items/{productId}?size=
func (h *StorefrontHandler) UpdateCartQty(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req UpdateCartQtyRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateCartQty(r.Context(), shopperFromRequest(r), id, r.URL.Query().Get("size"), req.Delta)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveFromCart handles DELETE /api/v1/store/cart/items/{productId}?size=
func (h *StorefrontHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	cart, err := h.service.RemoveFromCart(r.Context(), shopperFromRequest(r), id, r.URL.Query().Get("size"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}
