// Package entitlement records grants of access from users to catalog items.
// Access for a (user, item) pair is the union of all matching non-revoked,
// non-expired rows; any single row is enough, however many sources granted it.
package entitlement

import "time"

type SourceKind string

const (
	SourcePurchase SourceKind = "PURCHASE"
	SourcePromo    SourceKind = "PROMO"
)

type Entitlement struct {
	ID        string
	UserID    string
	ItemID    string
	Source    SourceKind
	SourceID  string // order id for purchases
	GrantedAt time.Time
	ExpiresAt *time.Time
	RevokedAt *time.Time
}

// Effective reports whether the row grants access at t.
func (e Entitlement) Effective(t time.Time) bool {
	if e.RevokedAt != nil {
		return false
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(t) {
		return false
	}
	return true
}
