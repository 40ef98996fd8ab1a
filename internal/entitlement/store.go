package entitlement

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("entitlement: not found")

type Store interface {
	Insert(ctx context.Context, e Entitlement) error
	HasAccess(ctx context.Context, userID, itemID string, t time.Time) (bool, error)
	ListForUser(ctx context.Context, userID string, t time.Time) ([]Entitlement, error)

	// Revoke soft-revokes one row. Rows are never hard-deleted.
	Revoke(ctx context.Context, id string, at time.Time) error
}
