package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Insert(ctx context.Context, sub Subscription) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO subscriptions(id, user_id, plan_id, external_ref, status, current_period_start, current_period_end, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sub.ID, sub.UserID, sub.PlanID, sub.ExternalRef, string(sub.Status),
		nullTime(sub.CurrentPeriodStart), nullTime(sub.CurrentPeriodEnd), sub.CancelledAt,
	)
	return err
}

func (s *PGStore) GetByExternalRef(ctx context.Context, ref string) (Subscription, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, user_id, plan_id, external_ref, status,
		       COALESCE(current_period_start, 'epoch'::timestamptz),
		       COALESCE(current_period_end, 'epoch'::timestamptz),
		       cancelled_at, created_at, updated_at
		FROM subscriptions WHERE external_ref=$1`, ref)
	return scanSub(row)
}

func (s *PGStore) Update(ctx context.Context, sub Subscription) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE subscriptions
		SET status=$2, current_period_start=$3, current_period_end=$4, cancelled_at=$5, updated_at=now()
		WHERE external_ref=$1`,
		sub.ExternalRef, string(sub.Status),
		nullTime(sub.CurrentPeriodStart), nullTime(sub.CurrentPeriodEnd), sub.CancelledAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ActiveForUser(ctx context.Context, userID string, t time.Time) (Subscription, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, user_id, plan_id, external_ref, status,
		       COALESCE(current_period_start, 'epoch'::timestamptz),
		       COALESCE(current_period_end, 'epoch'::timestamptz),
		       cancelled_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id=$1 AND status=$2 AND (current_period_end IS NULL OR current_period_end > $3)
		ORDER BY current_period_end DESC
		LIMIT 1`, userID, string(StatusActive), t)
	return scanSub(row)
}

func scanSub(row pgx.Row) (Subscription, error) {
	var sub Subscription
	var status string
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.ExternalRef, &status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelledAt, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	if err != nil {
		return Subscription{}, err
	}
	sub.Status = Status(status)
	return sub, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type PGPlanStore struct{ DB *pgxpool.Pool }

func (s *PGPlanStore) GetPlan(ctx context.Context, id string) (Plan, error) {
	var p Plan
	var features []byte
	err := s.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, currency, billing_interval, COALESCE(provider_price_ref, ''), features
		FROM plans WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Currency, &p.Interval, &p.ProviderPriceRef, &features)
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	if err != nil {
		return Plan{}, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return Plan{}, err
		}
	}
	return p, nil
}
