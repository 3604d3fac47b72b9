package domain

import "time"

// Account is a registered shopper.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated user as seen by the store. Absence is
// expressed as (Identity{}, false) by every function returning one.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Identity projects the account onto its public identity.
func (a *Account) Identity() Identity {
	return Identity{UserID: a.ID, Email: a.Email}
}
