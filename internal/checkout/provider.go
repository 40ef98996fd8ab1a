// Package checkout turns a local order or membership intent into a
// provider-hosted payment session. It is a pure external-call wrapper: the
// processor never recomputes pricing and nothing local is mutated here.
package checkout

import (
	"context"
	"errors"
	"time"
)

// ErrProvider marks a failure of the external processor call. The order (if
// any) stays PENDING and checkout can be retried for the same order id.
var ErrProvider = errors.New("checkout: provider call failed")

const (
	ModePayment      = "payment"
	ModeSubscription = "subscription"
)

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type SessionLineItem struct {
	Title     string `json:"title"`
	Qty       int    `json:"qty"`
	UnitCents int    `json:"unit_cents"`
}

type SessionParams struct {
	Mode        string            `json:"mode"`
	Reference   string            `json:"reference"` // opaque correlation token
	AmountCents int               `json:"amount_cents,omitempty"`
	Currency    string            `json:"currency"`
	LineItems   []SessionLineItem `json:"line_items,omitempty"`
	PriceRef    string            `json:"price_ref,omitempty"` // provider price for subscriptions
	SuccessURL  string            `json:"success_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type ProviderSubscription struct {
	ID                 string    `json:"id"`
	Status             string    `json:"status"`
	PlanRef            string    `json:"plan_ref"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool      `json:"cancel_at_period_end"`
}

// ProviderClient is the abstract payment-processor client. Its concrete API
// surface is out of scope for this service; we consume sessions and the
// subscription lifecycle, nothing more.
type ProviderClient interface {
	CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error)
	GetSubscription(ctx context.Context, externalRef string) (ProviderSubscription, error)
	CancelSubscription(ctx context.Context, externalRef string) error
}
