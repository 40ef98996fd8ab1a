package checkout

import (
	"context"

	"github.com/subapavel/samofujera/internal/orders"
	"github.com/subapavel/samofujera/internal/subscription"
)

type Orchestrator struct {
	Provider   ProviderClient
	SuccessURL string
	CancelURL  string
}

// ForOrder builds a hosted-checkout session for an existing PENDING order.
// Prices are already final in the ledger; the order id rides along as the
// correlation token the webhook will hand back.
func (o *Orchestrator) ForOrder(ctx context.Context, v orders.View) (Session, error) {
	p := SessionParams{
		Mode:        ModePayment,
		Reference:   v.ID,
		AmountCents: v.TotalCents,
		Currency:    v.Currency,
		SuccessURL:  o.SuccessURL,
		CancelURL:   o.CancelURL,
		Metadata: map[string]string{
			"order_id": v.ID,
			"buyer_id": v.BuyerID,
		},
	}
	for _, it := range v.Items {
		p.LineItems = append(p.LineItems, SessionLineItem{
			Title:     it.Snapshot.Title,
			Qty:       it.Qty,
			UnitCents: it.UnitCents,
		})
	}
	return o.Provider.CreateCheckoutSession(ctx, p)
}

// ForSubscription builds a subscription-mode session for a membership plan.
// User and plan ids are the correlation token; the actual subscription row is
// only created later, driven by the provider's lifecycle webhooks.
func (o *Orchestrator) ForSubscription(ctx context.Context, userID string, plan subscription.Plan) (Session, error) {
	p := SessionParams{
		Mode:       ModeSubscription,
		Reference:  userID + ":" + plan.ID,
		Currency:   plan.Currency,
		PriceRef:   plan.ProviderPriceRef,
		SuccessURL: o.SuccessURL,
		CancelURL:  o.CancelURL,
		Metadata: map[string]string{
			"user_id": userID,
			"plan_id": plan.ID,
		},
	}
	return o.Provider.CreateCheckoutSession(ctx, p)
}
