// Package catalog is the read-side collaborator consumed by the order ledger.
// The catalog write-side lives elsewhere; this service only asks whether an
// item can currently be sold and what it costs.
package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog: item not found")

type Item struct {
	ID          string
	Title       string
	ItemType    string
	Thumbnail   string
	PriceCents  int
	Purchasable bool
}

type Reader interface {
	GetItem(ctx context.Context, id string) (Item, error)
}

type PGReader struct{ DB *pgxpool.Pool }

func (r *PGReader) GetItem(ctx context.Context, id string) (Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		SELECT id, title, item_type, COALESCE(thumbnail, ''), price_cents, purchasable
		FROM catalog_items WHERE id=$1`, id).
		Scan(&it.ID, &it.Title, &it.ItemType, &it.Thumbnail, &it.PriceCents, &it.Purchasable)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}
