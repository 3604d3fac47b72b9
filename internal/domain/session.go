package domain

import (
	"slices"
	"time"
)

// DetailSelection is the state of the product detail panel.
type DetailSelection struct {
	ProductID  int    `json:"product_id"`
	ImageIndex int    `json:"image_index"`
	Size       string `json:"size,omitempty"`
	Qty        int    `json:"qty"`
}

// Session is the serialisable state of one shopper's storefront.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	Favorites []int            `json:"favorites"`
	Cart      []CartLine       `json:"cart"`
	Detail    *DetailSelection `json:"detail,omitempty"`
	CartOpen  bool             `json:"cart_open"`
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// NewSession returns an empty session seeded with the given favorites.
func NewSession(id, userID string, favorites []int, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Favorites: slices.Clone(favorites),
		Cart:      []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Favorites = slices.Clone(s.Favorites)
	c.Cart = slices.Clone(s.Cart)
	if s.Detail != nil {
		d := *s.Detail
		c.Detail = &d
	}
	return &c
}
