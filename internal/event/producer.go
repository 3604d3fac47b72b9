package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/kreedentials/store/internal/domain"
	pkgkafka "github.com/kreedentials/store/pkg/kafka"
	"github.com/kreedentials/store/pkg/logger"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated     = pkgkafka.Topic("store", "cart", "updated")
	TopicWishlistUpdated = pkgkafka.Topic("store", "wishlist", "updated")
)

// AggregateTypeSession is the aggregate every storefront event belongs to.
const AggregateTypeSession = "session"

// SourceStoreService identifies events originating from this service.
const SourceStoreService = "store-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`
	Operation string          `json:"operation"`
	Lines     []CartLineData  `json:"lines"`
	ItemCount int             `json:"item_count"`
	Units     int             `json:"units"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartLineData is one priced line within a cart.updated event.
type CartLineData struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id,omitempty"`
	ProductID int    `json:"product_id"`
	Favorited bool   `json:"favorited"`
	Favorites []int  `json:"favorites"`
}

// Publisher publishes storefront domain events. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, s *domain.Session, operation string, summary domain.CartSummary) error
	PublishWishlistUpdated(ctx context.Context, s *domain.Session, productID int, favorited bool) error
}

// eventWriter is the part of pkg/kafka.Producer the event producer needs.
type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a new event producer for the store service.
func NewProducer(kafka eventWriter, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event carrying the priced cart.
func (p *Producer) PublishCartUpdated(ctx context.Context, s *domain.Session, operation string, summary domain.CartSummary) error {
	lines := make([]CartLineData, len(summary.Lines))
	for i, l := range summary.Lines {
		lines[i] = CartLineData{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Size:      l.Size,
			Qty:       l.Qty,
			UnitPrice: l.Product.Price,
			LineTotal: l.LineTotal,
		}
	}

	data := CartUpdatedData{
		SessionID: s.ID,
		UserID:    s.UserID,
		Operation: operation,
		Lines:     lines,
		ItemCount: summary.ItemCount,
		Units:     summary.Units,
		Subtotal:  summary.Subtotal,
	}

	if err := p.publish(ctx, TopicCartUpdated, s.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", s.ID),
		slog.String("operation", operation),
		slog.Int("item_count", summary.ItemCount),
	)
	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, s *domain.Session, productID int, favorited bool) error {
	favorites := s.Favorites
	if favorites == nil {
		favorites = []int{}
	}

	data := WishlistUpdatedData{
		SessionID: s.ID,
		UserID:    s.UserID,
		ProductID: productID,
		Favorited: favorited,
		Favorites: favorites,
	}

	if err := p.publish(ctx, TopicWishlistUpdated, s.ID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("session_id", s.ID),
		slog.Int("product_id", productID),
		slog.Bool("favorited", favorited),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, sessionID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, sessionID, AggregateTypeSession, SourceStoreService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// NopPublisher discards every event. It is used when Kafka is disabled.
type NopPublisher struct{}

// PublishCartUpdated implements Publisher.
func (NopPublisher) PublishCartUpdated(context.Context, *domain.Session, string, domain.CartSummary) error {
	return nil
}

// PublishWishlistUpdated implements Publisher.
func (NopPublisher) PublishWishlistUpdated(context.Context, *domain.Session, int, bool) error {
	return nil
}
