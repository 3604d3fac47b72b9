package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kreedentials/store/internal/catalog"
	"github.com/kreedentials/store/internal/domain"
	"github.com/kreedentials/store/internal/engine"
	"github.com/kreedentials/store/internal/event"
	"github.com/kreedentials/store/internal/repository"
	apperrors "github.com/kreedentials/store/pkg/errors"
	"github.com/kreedentials/store/pkg/pagination"
)

// Shopper identifies whose storefront state a call operates on. UserID is
// set for signed-in shoppers and takes precedence over SessionID.
type Shopper struct {
	SessionID string
	UserID    string
}

// Key returns the session key: the user id when signed in, otherwise the
// anonymous session id.
func (s Shopper) Key() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.SessionID
}

// StorefrontConfig holds the tunables of the storefront service.
type StorefrontConfig struct {
	SessionTTL       time.Duration
	DefaultFavorites []int
}

// StorefrontService hosts one engine state per session. Every call restores
// an engine from the stored snapshot, applies one operation and writes the
// snapshot back with an optimistic version check.
type StorefrontService struct {
	catalog    *catalog.Catalog
	anonymous  repository.SessionRepository
	persistent repository.SessionRepository
	publisher  event.Publisher
	cfg        StorefrontConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewStorefrontService creates a new storefront service. Anonymous sessions
// live in anonymous; sessions of signed-in shoppers live in persistent.
func NewStorefrontService(
	cat *catalog.Catalog,
	anonymous repository.SessionRepository,
	persistent repository.SessionRepository,
	publisher event.Publisher,
	cfg StorefrontConfig,
	logger *slog.Logger,
) *StorefrontService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &StorefrontService{
		catalog:    cat,
		anonymous:  anonymous,
		persistent: persistent,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// --- View types ---

// StoreView is the complete storefront state of one shopper.
type StoreView struct {
	SessionID     string           `json:"session_id"`
	Authenticated bool             `json:"authenticated"`
	Favorites     []int            `json:"favorites"`
	Wishlist      []domain.Product `json:"wishlist"`
	Cart          CartView         `json:"cart"`
	Detail        *DetailView      `json:"detail"`
}

// CartView is the priced cart plus its visibility.
type CartView struct {
	domain.CartSummary
	Open bool `json:"open"`
}

// DetailView is the open product together with the shopper's selection.
type DetailView struct {
	Product      domain.Product `json:"product"`
	ImageIndex   int            `json:"image_index"`
	Image        string         `json:"image"`
	Size         string         `json:"size,omitempty"`
	Qty          int            `json:"qty"`
	Favorite     bool           `json:"favorite"`
	DeliveryDate string         `json:"delivery_date"`
}

// FavoriteResult reports the wishlist after a toggle.
type FavoriteResult struct {
	ProductID int   `json:"product_id"`
	Favorite  bool  `json:"favorite"`
	Favorites []int `json:"favorites"`
}

// DeliveryEstimate is the projected arrival of a product ordered now.
type DeliveryEstimate struct {
	ProductID int    `json:"product_id"`
	ETADays   int    `json:"eta_days"`
	Date      string `json:"date"`
}

// --- Input types ---

// CatalogQuery holds the parameters for listing the catalog.
type CatalogQuery struct {
	Category string
	Text     string
	Page     pagination.Params
}

// DetailUpdate changes the detail selection. Nil fields are left alone.
type DetailUpdate struct {
	ImageIndex *int
	Size       *string
	Qty        *int
}

// AddToCartInput holds the parameters for adding a product to the cart.
type AddToCartInput struct {
	ProductID int
	Qty       int
	Size      string
}

// --- Catalog operations ---

// Catalog returns one page of the catalog filtered by category and name.
func (s *StorefrontService) Catalog(_ context.Context, q CatalogQuery) (pagination.Result[domain.Product], error) {
	category, err := domain.ParseCategory(q.Category)
	if err != nil {
		return pagination.Result[domain.Product]{}, apperrors.InvalidInput(err.Error())
	}
	return pagination.Slice(s.catalog.Filter(category, q.Text), q.Page), nil
}

// Categories returns the category choices, "All" first.
func (s *StorefrontService) Categories() []domain.Category {
	return s.catalog.Categories()
}

// Product returns a single catalog product.
func (s *StorefrontService) Product(_ context.Context, id int) (domain.Product, error) {
	return s.product(id)
}

// DeliveryEstimate returns the delivery date label for ordering id today.
func (s *StorefrontService) DeliveryEstimate(_ context.Context, id int) (*DeliveryEstimate, error) {
	p, err := s.product(id)
	if err != nil {
		return nil, err
	}
	return &DeliveryEstimate{
		ProductID: p.ID,
		ETADays:   p.ETADays,
		Date:      engine.DeliveryDate(s.now(), p.ETADays),
	}, nil
}

// --- Session read operations ---

// View returns the shopper's full storefront state. It never creates a
// session.
func (s *StorefrontService) View(ctx context.Context, shopper Shopper) (*StoreView, error) {
	e, err := s.read(ctx, shopper)
	if err != nil {
		return nil, err
	}
	return s.storeView(shopper, e), nil
}

// Wishlist returns the shopper's favorite products in catalog order.
func (s *StorefrontService) Wishlist(ctx context.Context, shopper Shopper) ([]domain.Product, error) {
	e, err := s.read(ctx, shopper)
	if err != nil {
		return nil, err
	}
	return e.WishlistProducts(), nil
}

// CartSummary returns the priced cart.
func (s *StorefrontService) CartSummary(ctx context.Context, shopper Shopper) (*CartView, error) {
	e, err := s.read(ctx, shopper)
	if err != nil {
		return nil, err
	}
	return cartView(e), nil
}

// --- Wishlist mutations ---

// ToggleFavorite adds or removes id from the wishlist.
func (s *StorefrontService) ToggleFavorite(ctx context.Context, shopper Shopper, id int) (*FavoriteResult, error) {
	if _, err := s.product(id); err != nil {
		return nil, s.reject(ctx, "toggle_favorite", err)
	}

	e, snap, err := s.mutate(ctx, shopper, "toggle_favorite", func(e *engine.Engine) error {
		e.ToggleFavorite(id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	favorite := e.IsFavorite(id)
	if err := s.publisher.PublishWishlistUpdated(ctx, snap, id, favorite); err != nil {
		s.logPublishError(ctx, "wishlist.updated", snap, err)
	}

	return &FavoriteResult{ProductID: id, Favorite: favorite, Favorites: e.Favorites()}, nil
}

// --- Detail panel mutations ---

// OpenDetail opens product id in the detail panel.
func (s *StorefrontService) OpenDetail(ctx context.Context, shopper Shopper, id int) (*DetailView, error) {
	p, err := s.product(id)
	if err != nil {
		return nil, s.reject(ctx, "open_detail", err)
	}

	e, _, err := s.mutate(ctx, shopper, "open_detail", func(e *engine.Engine) error {
		e.OpenDetail(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detailView(e), nil
}

// UpdateDetail changes the gallery image, size and pending quantity of the
// open product. Values the product does not offer are rejected.
func (s *StorefrontService) UpdateDetail(ctx context.Context, shopper Shopper, in DetailUpdate) (*DetailView, error) {
	e, _, err := s.mutate(ctx, shopper, "update_detail", func(e *engine.Engine) error {
		sel, ok := e.Detail()
		if !ok {
			return apperrors.InvalidOperation("no product is open")
		}
		if in.ImageIndex != nil && !e.SelectGalleryImage(*in.ImageIndex) {
			return apperrors.InvalidInput(fmt.Sprintf("image index %d is out of range for product %d", *in.ImageIndex, sel.ProductID))
		}
		if in.Size != nil && !e.SelectVariant(*in.Size) {
			return apperrors.InvalidInput(fmt.Sprintf("size %q is not offered for product %d", *in.Size, sel.ProductID))
		}
		if in.Qty != nil {
			e.SetPendingQty(*in.Qty)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detailView(e), nil
}

// CloseDetail closes the detail panel. Closing an already closed panel is a
// no-op.
func (s *StorefrontService) CloseDetail(ctx context.Context, shopper Shopper) error {
	_, _, err := s.mutate(ctx, shopper, "close_detail", func(e *engine.Engine) error {
		e.CloseDetail()
		return nil
	})
	return err
}

// --- Cart mutations ---

// AddSelectionToCart adds the open product with its pending quantity and
// size.
func (s *StorefrontService) AddSelectionToCart(ctx context.Context, shopper Shopper) (*CartView, error) {
	return s.mutateCart(ctx, shopper, "add_selection_to_cart", func(e *engine.Engine) error {
		return e.AddSelectionToCart()
	})
}

// AddToCart adds a product to the cart, merging with an existing line of the
// same product and size.
func (s *StorefrontService) AddToCart(ctx context.Context, shopper Shopper, in AddToCartInput) (*CartView, error) {
	p, err := s.product(in.ProductID)
	if err != nil {
		return nil, s.reject(ctx, "add_to_cart", err)
	}
	return s.mutateCart(ctx, shopper, "add_to_cart", func(e *engine.Engine) error {
		return e.AddToCart(p, in.Qty, in.Size)
	})
}

// UpdateCartQty changes a line's quantity by delta, removing it when the
// result drops below 1.
func (s *StorefrontService) UpdateCartQty(ctx context.Context, shopper Shopper, productID int, size string, delta int) (*CartView, error) {
	if _, err := s.product(productID); err != nil {
		return nil, s.reject(ctx, "update_cart_qty", err)
	}
	return s.mutateCart(ctx, shopper, "update_cart_qty", func(e *engine.Engine) error {
		if !e.UpdateCartQty(productID, size, delta) {
			return apperrors.NotFound("cart line", lineKey(productID, size))
		}
		return nil
	})
}

// RemoveFromCart deletes a cart line. Removing a line that is not in the cart
// succeeds without change.
func (s *StorefrontService) RemoveFromCart(ctx context.Context, shopper Shopper, productID int, size string) (*CartView, error) {
	if _, err := s.product(productID); err != nil {
		return nil, s.reject(ctx, "remove_from_cart", err)
	}
	return s.mutateCart(ctx, shopper, "remove_from_cart", func(e *engine.Engine) error {
		e.RemoveFromCart(productID, size)
		return nil
	})
}

// ClearCart empties the cart.
func (s *StorefrontService) ClearCart(ctx context.Context, shopper Shopper) (*CartView, error) {
	return s.mutateCart(ctx, shopper, "clear_cart", func(e *engine.Engine) error {
		e.ClearCart()
		return nil
	})
}

// SetCartOpen shows or hides the cart view.
func (s *StorefrontService) SetCartOpen(ctx context.Context, shopper Shopper, open bool) (*CartView, error) {
	e, _, err := s.mutate(ctx, shopper, "set_cart_open", func(e *engine.Engine) error {
		e.SetCartOpen(open)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cartView(e), nil
}

// --- Helpers ---

func (s *StorefrontService) product(id int) (domain.Product, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", fmt.Sprintf("%d", id))
	}
	return p, nil
}

func (s *StorefrontService) store(shopper Shopper) repository.SessionRepository {
	if shopper.UserID != "" {
		return s.persistent
	}
	return s.anonymous
}

// load returns the stored session for shopper, or a fresh one with version 0
// when none exists.
func (s *StorefrontService) load(ctx context.Context, shopper Shopper) (*domain.Session, int, error) {
	key := shopper.Key()
	if key == "" {
		return nil, 0, apperrors.InvalidInput("session id is required")
	}

	sess, err := s.store(shopper).Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewSession(key, shopper.UserID, s.cfg.DefaultFavorites, s.now().UTC(), s.cfg.SessionTTL), 0, nil
		}
		return nil, 0, fmt.Errorf("load session: %w", err)
	}
	return sess, sess.Version, nil
}

func (s *StorefrontService) restore(sess *domain.Session) *engine.Engine {
	return engine.New(s.catalog, engine.FromSession(sess), engine.WithClock(s.now))
}

func (s *StorefrontService) read(ctx context.Context, shopper Shopper) (*engine.Engine, error) {
	sess, _, err := s.load(ctx, shopper)
	if err != nil {
		return nil, err
	}
	return s.restore(sess), nil
}

// mutate applies fn to the shopper's engine and saves the resulting
// snapshot. It returns the engine and the saved snapshot.
func (s *StorefrontService) mutate(ctx context.Context, shopper Shopper, op string, fn func(*engine.Engine) error) (*engine.Engine, *domain.Session, error) {
	sess, version, err := s.load(ctx, shopper)
	if err != nil {
		return nil, nil, s.reject(ctx, op, err)
	}

	e := s.restore(sess)
	if err := fn(e); err != nil {
		return nil, nil, s.reject(ctx, op, err)
	}

	now := s.now().UTC()
	snap := e.Snapshot()
	snap.UpdatedAt = now
	snap.ExpiresAt = now.Add(s.cfg.SessionTTL)

	if err := s.store(shopper).SaveIfVersion(ctx, snap, version); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			sessionConflicts.Inc()
			s.logger.WarnContext(ctx, "session save lost a concurrent update",
				slog.String("session_id", snap.ID),
				slog.String("operation", op),
				slog.Int("expected_version", version),
			)
			return nil, nil, s.reject(ctx, op, err)
		}
		return nil, nil, s.reject(ctx, op, fmt.Errorf("save session: %w", err))
	}

	engineOperations.WithLabelValues(op, outcome(nil)).Inc()
	s.logger.DebugContext(ctx, "storefront operation applied",
		slog.String("session_id", snap.ID),
		slog.String("operation", op),
		slog.Int("version", snap.Version),
	)
	return e, snap, nil
}

// mutateCart is mutate followed by a cart.updated event.
func (s *StorefrontService) mutateCart(ctx context.Context, shopper Shopper, op string, fn func(*engine.Engine) error) (*CartView, error) {
	e, snap, err := s.mutate(ctx, shopper, op, fn)
	if err != nil {
		return nil, err
	}

	view := cartView(e)
	if err := s.publisher.PublishCartUpdated(ctx, snap, op, view.CartSummary); err != nil {
		s.logPublishError(ctx, "cart.updated", snap, err)
	}
	return view, nil
}

func (s *StorefrontService) reject(ctx context.Context, op string, err error) error {
	engineOperations.WithLabelValues(op, outcome(err)).Inc()
	if apperrors.HTTPStatus(err) >= 500 {
		s.logger.ErrorContext(ctx, "storefront operation failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (s *StorefrontService) logPublishError(ctx context.Context, eventType string, sess *domain.Session, err error) {
	s.logger.ErrorContext(ctx, "failed to publish "+eventType+" event",
		slog.String("session_id", sess.ID),
		slog.String("error", err.Error()),
	)
}

func (s *StorefrontService) storeView(shopper Shopper, e *engine.Engine) *StoreView {
	return &StoreView{
		SessionID:     shopper.Key(),
		Authenticated: shopper.UserID != "",
		Favorites:     e.Favorites(),
		Wishlist:      e.WishlistProducts(),
		Cart:          *cartView(e),
		Detail:        detailView(e),
	}
}

func cartView(e *engine.Engine) *CartView {
	return &CartView{CartSummary: e.CartSummary(), Open: e.CartOpen()}
}

// detailView returns nil when no product is open.
func detailView(e *engine.Engine) *DetailView {
	sel, ok := e.Detail()
	if !ok {
		return nil
	}
	p, ok := e.Catalog().Get(sel.ProductID)
	if !ok {
		return nil
	}
	return &DetailView{
		Product:      p,
		ImageIndex:   sel.ImageIndex,
		Image:        p.Gallery[sel.ImageIndex],
		Size:         sel.Size,
		Qty:          sel.Qty,
		Favorite:     e.IsFavorite(p.ID),
		DeliveryDate: e.EstimatedDeliveryDate(p.ETADays),
	}
}

func lineKey(productID int, size string) string {
	if size == "" {
		return fmt.Sprintf("%d", productID)
	}
	return fmt.Sprintf("%d/%s", productID, size)
}
