package entitlement

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Insert(ctx context.Context, e Entitlement) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO entitlements(id, user_id, item_id, source, source_id, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.ItemID, string(e.Source), e.SourceID, e.GrantedAt, e.ExpiresAt,
	)
	return err
}

func (s *PGStore) HasAccess(ctx context.Context, userID, itemID string, t time.Time) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM entitlements
			WHERE user_id=$1 AND item_id=$2
			  AND revoked_at IS NULL
			  AND (expires_at IS NULL OR expires_at > $3)
		)`, userID, itemID, t).Scan(&ok)
	return ok, err
}

func (s *PGStore) ListForUser(ctx context.Context, userID string, t time.Time) ([]Entitlement, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, item_id, source, source_id, granted_at, expires_at, revoked_at
		FROM entitlements
		WHERE user_id=$1 AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY granted_at DESC`, userID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entitlement
	for rows.Next() {
		var e Entitlement
		var source string
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &source, &e.SourceID, &e.GrantedAt, &e.ExpiresAt, &e.RevokedAt); err != nil {
			return nil, err
		}
		e.Source = SourceKind(source)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) Revoke(ctx context.Context, id string, at time.Time) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE entitlements SET revoked_at=$2 WHERE id=$1 AND revoked_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
