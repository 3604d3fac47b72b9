package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kreedentials/store/internal/service"
	"github.com/kreedentials/store/pkg/health"
	"github.com/kreedentials/store/pkg/middleware"
)

// serviceName labels metrics and spans emitted by the router.
const serviceName = "store"

// RouterConfig holds the HTTP tunables of the router.
type RouterConfig struct {
	RequestTimeout  time.Duration
	CatalogCacheTTL time.Duration
	AuthRateLimit   float64
	AuthRateBurst   int
	CORS            middleware.CORSConfig
}

// withDefaults fills zero fields with production defaults.
func (c RouterConfig) withDefaults() RouterConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.CatalogCacheTTL <= 0 {
		c.CatalogCacheTTL = 5 * time.Minute
	}
	if c.AuthRateLimit <= 0 {
		c.AuthRateLimit = 5
	}
	if c.AuthRateBurst <= 0 {
		c.AuthRateBurst = 10
	}
	return c
}

// NewRouter creates a chi router with all store routes registered.
func NewRouter(
	storefront *service.StorefrontService,
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	cfg = cfg.withDefaults()
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	storefrontHandler := NewStorefrontHandler(storefront, logger)
	authHandler := NewAuthHandler(authService, logger)
	authenticate := middleware.OptionalAuth(authService.ValidateToken)

	// Catalog endpoints (public, immutable)
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Use(middleware.CacheControl(cfg.CatalogCacheTTL))

		r.Get("/", storefrontHandler.ListCatalog)
		r.Get("/categories", storefrontHandler.ListCategories)
		r.Get("/{productId}", storefrontHandler.GetProduct)
		r.Get("/{productId}/delivery", storefrontHandler.GetDeliveryEstimate)
	})

	// Storefront session endpoints (anonymous or signed in)
	r.Route("/api/v1/store", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)
		r.Use(authenticate)
		r.Use(ShopperSession)

		r.Get("/", storefrontHandler.GetStore)

		r.Get("/wishlist", storefrontHandler.GetWishlist)
		r.Post("/wishlist/{productId}/toggle", storefrontHandler.ToggleFavorite)

		r.Put("/detail", storefrontHandler.OpenDetail)
		r.Patch("/detail", storefrontHandler.UpdateDetail)
		r.Delete("/detail", storefrontHandler.CloseDetail)
		r.Post("/detail/cart", storefrontHandler.AddSelectionToCart)

		r.Get("/cart", storefrontHandler.GetCart)
		r.Delete("/cart", storefrontHandler.ClearCart)
		r.Put("/cart/visibility", storefrontHandler.SetCartVisibility)
		r.Post("/cart/items", storefrontHandler.AddToCart)
		r.Patch("/cart/items/{productId}", storefrontHandler.UpdateCartQty)
		r.Delete("/cart/items/{productId}", storefrontHandler.RemoveFromCart)
	})

	// Auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)
		r.Use(middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst, logger))

		r.Post("/signup", authHandler.SignUp)
		r.Post("/signin", authHandler.SignIn)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAuth)

			r.Post("/signout", authHandler.SignOut)
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
