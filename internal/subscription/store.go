package subscription

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("subscription: not found")
	ErrPlanNotFound = errors.New("subscription: plan not found")
)

type Store interface {
	Insert(ctx context.Context, s Subscription) error
	GetByExternalRef(ctx context.Context, ref string) (Subscription, error)
	Update(ctx context.Context, s Subscription) error

	// ActiveForUser returns the user's subscription considered ACTIVE at t,
	// filtered by status and period end. ErrNotFound when there is none.
	ActiveForUser(ctx context.Context, userID string, t time.Time) (Subscription, error)
}

type PlanStore interface {
	GetPlan(ctx context.Context, id string) (Plan, error)
}
