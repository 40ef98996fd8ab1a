package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Reconciler maps processor-driven lifecycle signals onto local rows.
type Reconciler struct {
	Store Store
}

// Apply handles one lifecycle signal. Updated/deleted signals whose external
// reference has no local row are logged and dropped, never an error back to
// the (non-interactive, retrying) processor. If the processor can legitimately
// deliver "updated" ahead of its "created", that state is lost here; the drop
// log line is the only trace.
func (r *Reconciler) Apply(ctx context.Context, sig Signal) error {
	switch sig.Kind {
	case SignalCreated:
		return r.created(ctx, sig)
	case SignalUpdated:
		return r.updated(ctx, sig)
	case SignalDeleted:
		return r.deleted(ctx, sig)
	default:
		return fmt.Errorf("subscription: unknown signal kind %q", sig.Kind)
	}
}

func (r *Reconciler) created(ctx context.Context, sig Signal) error {
	// Redelivered "created" for a known ref degrades to an update.
	if existing, err := r.Store.GetByExternalRef(ctx, sig.ExternalRef); err == nil {
		existing.Status = FromProvider(sig.ProviderStatus)
		existing.CurrentPeriodStart = sig.PeriodStart
		existing.CurrentPeriodEnd = sig.PeriodEnd
		return r.Store.Update(ctx, existing)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return r.Store.Insert(ctx, Subscription{
		ID:                 uuid.NewString(),
		UserID:             sig.UserID,
		PlanID:             sig.PlanID,
		ExternalRef:        sig.ExternalRef,
		Status:             FromProvider(sig.ProviderStatus),
		CurrentPeriodStart: sig.PeriodStart,
		CurrentPeriodEnd:   sig.PeriodEnd,
	})
}

func (r *Reconciler) updated(ctx context.Context, sig Signal) error {
	sub, err := r.Store.GetByExternalRef(ctx, sig.ExternalRef)
	if errors.Is(err, ErrNotFound) {
		log.Printf("subscription update for unknown ref %s, dropping", sig.ExternalRef)
		return nil
	}
	if err != nil {
		return err
	}
	sub.Status = FromProvider(sig.ProviderStatus)
	sub.CurrentPeriodStart = sig.PeriodStart
	sub.CurrentPeriodEnd = sig.PeriodEnd
	return r.Store.Update(ctx, sub)
}

func (r *Reconciler) deleted(ctx context.Context, sig Signal) error {
	sub, err := r.Store.GetByExternalRef(ctx, sig.ExternalRef)
	if errors.Is(err, ErrNotFound) {
		log.Printf("subscription delete for unknown ref %s, dropping", sig.ExternalRef)
		return nil
	}
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	sub.Status = StatusCancelled
	sub.CancelledAt = &now
	return r.Store.Update(ctx, sub)
}
