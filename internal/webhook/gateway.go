// Package webhook authenticates and routes the processor's asynchronous
// notifications. Nothing past signature verification ever runs for a payload
// that fails it, and event types this system does not act on are acknowledged
// so the provider stops retrying them.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/subapavel/samofujera/internal/subscription"
)

var (
	// ErrBadSignature and ErrBadPayload map to 400-class responses.
	ErrBadSignature = errors.New("webhook: invalid signature")
	ErrBadPayload   = errors.New("webhook: malformed payload")
)

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type checkoutCompletedData struct {
	SessionID  string            `json:"session_id"`
	PaymentRef string            `json:"payment_ref"`
	Metadata   map[string]string `json:"metadata"`
}

type subscriptionData struct {
	SubscriptionRef    string            `json:"subscription_ref"`
	Status             string            `json:"status"`
	PlanRef            string            `json:"plan_ref"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

// OrderSettler is the slice of the order ledger the gateway needs.
type OrderSettler interface {
	MarkPaid(ctx context.Context, orderID, paymentRef string) error
}

// SignalApplier is the slice of the subscription reconciler the gateway needs.
type SignalApplier interface {
	Apply(ctx context.Context, sig subscription.Signal) error
}

// Deduper short-circuits redelivered notifications by provider event id.
type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

type Gateway struct {
	Secret string
	Orders OrderSettler
	Subs   SignalApplier
	Dedup  Deduper // optional
}

// Process verifies the keyed signature over the exact raw body, then
// dispatches by event type. ErrBadSignature / ErrBadPayload mean a 400-class
// response; nil means the event was handled or intentionally ignored; any
// other error means a retryable processing failure.
func (g *Gateway) Process(ctx context.Context, body []byte, sig string) error {
	if !Verify(g.Secret, body, sig) {
		return ErrBadSignature
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ErrBadPayload
	}

	if g.Dedup != nil && ev.ID != "" {
		seen, err := g.Dedup.Seen(ctx, ev.ID)
		if err != nil {
			// Dedup is an optimization; the PAID CAS is the real guard.
			log.Printf("webhook dedup check %s: %v", ev.ID, err)
		} else if seen {
			log.Printf("webhook event %s already processed, acking", ev.ID)
			return nil
		}
	}

	var err error
	switch ev.Type {
	case EventCheckoutCompleted:
		err = g.checkoutCompleted(ctx, ev)
	case EventSubscriptionCreated:
		err = g.subscriptionSignal(ctx, ev, subscription.SignalCreated)
	case EventSubscriptionUpdated:
		err = g.subscriptionSignal(ctx, ev, subscription.SignalUpdated)
	case EventSubscriptionDeleted:
		err = g.subscriptionSignal(ctx, ev, subscription.SignalDeleted)
	default:
		log.Printf("webhook event type %q not handled, acking", ev.Type)
		return nil
	}
	if err != nil {
		return err
	}

	if g.Dedup != nil && ev.ID != "" {
		if err := g.Dedup.Mark(ctx, ev.ID); err != nil {
			log.Printf("webhook dedup mark %s: %v", ev.ID, err)
		}
	}
	return nil
}

func (g *Gateway) checkoutCompleted(ctx context.Context, ev Event) error {
	var d checkoutCompletedData
	if err := json.Unmarshal(ev.Data, &d); err != nil {
		return ErrBadPayload
	}
	orderID := d.Metadata["order_id"]
	if orderID == "" {
		// Subscription-mode sessions complete without an order; the
		// lifecycle events carry the state we care about.
		log.Printf("checkout session %s completed without order_id, acking", d.SessionID)
		return nil
	}
	return g.Orders.MarkPaid(ctx, orderID, d.PaymentRef)
}

func (g *Gateway) subscriptionSignal(ctx context.Context, ev Event, kind subscription.SignalKind) error {
	var d subscriptionData
	if err := json.Unmarshal(ev.Data, &d); err != nil {
		return ErrBadPayload
	}
	sig := subscription.Signal{
		Kind:           kind,
		ExternalRef:    d.SubscriptionRef,
		ProviderStatus: d.Status,
		PlanRef:        d.PlanRef,
		UserID:         d.Metadata["user_id"],
		PlanID:         d.Metadata["plan_id"],
	}
	if d.CurrentPeriodStart > 0 {
		sig.PeriodStart = time.Unix(d.CurrentPeriodStart, 0).UTC()
	}
	if d.CurrentPeriodEnd > 0 {
		sig.PeriodEnd = time.Unix(d.CurrentPeriodEnd, 0).UTC()
	}
	return g.Subs.Apply(ctx, sig)
}
