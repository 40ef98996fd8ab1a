package orders

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) CreateOrder(ctx context.Context, o Order, items []LineItem, ship *Shipping) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, buyer_id, status, total_cents, currency)
		VALUES ($1, $2, $3, $4, $5)
	`, o.ID, o.BuyerID, string(o.Status), o.TotalCents, o.Currency)
	if err != nil {
		return err
	}

	for _, it := range items {
		snap, err := json.Marshal(it.Snapshot)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, item_id, variant_id, qty, unit_cents, total_cents, snapshot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.OrderID, it.ItemID, nullable(it.VariantID), it.Qty, it.UnitCents, it.TotalCents, snap,
		)
		if err != nil {
			return err
		}
	}

	if ship != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_shipping(order_id, name, street, city, zip, country)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, ship.Name, ship.Street, ship.City, ship.Zip, ship.Country,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PGStore) GetOrder(ctx context.Context, id string) (View, error) {
	var v View
	var status string
	err := s.DB.QueryRow(ctx, `
		SELECT id, buyer_id, status, total_cents, currency, COALESCE(payment_ref, ''), created_at, updated_at
		FROM orders WHERE id=$1`, id).
		Scan(&v.ID, &v.BuyerID, &status, &v.TotalCents, &v.Currency, &v.PaymentRef, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return View{}, ErrNotFound
	}
	if err != nil {
		return View{}, err
	}
	v.Status = Status(status)

	v.Items, err = s.lineItems(ctx, s.DB, id)
	if err != nil {
		return View{}, err
	}

	var sh Shipping
	err = s.DB.QueryRow(ctx, `
		SELECT name, street, city, zip, country FROM order_shipping WHERE order_id=$1`, id).
		Scan(&sh.Name, &sh.Street, &sh.City, &sh.Zip, &sh.Country)
	if err == nil {
		v.Shipping = &sh
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return View{}, err
	}
	return v, nil
}

func (s *PGStore) MarkPaid(ctx context.Context, orderID, paymentRef string) (Order, []LineItem, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var o Order
	var status string
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status=$3, payment_ref=$2, updated_at=now()
		WHERE id=$1 AND status=$4
		RETURNING id, buyer_id, status, total_cents, currency, payment_ref, created_at, updated_at`,
		orderID, paymentRef, string(StatusPaid), string(StatusPending)).
		Scan(&o.ID, &o.BuyerID, &status, &o.TotalCents, &o.Currency, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// CAS missed: either the order is gone or it already left PENDING.
		var cur string
		err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&cur)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, nil, ErrNotFound
		}
		if err != nil {
			return Order{}, nil, err
		}
		if Status(cur) == StatusPaid {
			return Order{}, nil, ErrAlreadyPaid
		}
		return Order{}, nil, ErrNotPayable
	}
	if err != nil {
		return Order{}, nil, err
	}
	o.Status = Status(status)

	items, err := s.lineItems(ctx, tx, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *PGStore) lineItems(ctx context.Context, q querier, orderID string) ([]LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, item_id, COALESCE(variant_id, ''), qty, unit_cents, total_cents, snapshot
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var it LineItem
		var snap []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.VariantID, &it.Qty, &it.UnitCents, &it.TotalCents, &snap); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snap, &it.Snapshot); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
