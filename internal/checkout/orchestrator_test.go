package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subapavel/samofujera/internal/orders"
	"github.com/subapavel/samofujera/internal/subscription"
)

type fakeProvider struct {
	gotParams SessionParams
	session   Session
	err       error
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error) {
	f.gotParams = p
	return f.session, f.err
}

func (f *fakeProvider) GetSubscription(ctx context.Context, ref string) (ProviderSubscription, error) {
	return ProviderSubscription{}, nil
}

func (f *fakeProvider) CancelSubscription(ctx context.Context, ref string) error { return nil }

func orderView() orders.View {
	return orders.View{
		Order: orders.Order{
			ID:         "order-1",
			BuyerID:    "u1",
			Status:     orders.StatusPending,
			TotalCents: 350,
			Currency:   "CZK",
		},
		Items: []orders.LineItem{
			{ItemID: "item-a", Qty: 1, UnitCents: 100, TotalCents: 100,
				Snapshot: orders.ItemSnapshot{SchemaVersion: orders.SnapshotSchemaVersion, Title: "Item A"}},
			{ItemID: "item-b", Qty: 1, UnitCents: 250, TotalCents: 250,
				Snapshot: orders.ItemSnapshot{SchemaVersion: orders.SnapshotSchemaVersion, Title: "Item B"}},
		},
	}
}

func TestForOrderCarriesCorrelationAndFinalPrices(t *testing.T) {
	fp := &fakeProvider{session: Session{ID: "cs_1", URL: "https://pay.example.com/cs_1"}}
	o := &Orchestrator{Provider: fp, SuccessURL: "https://shop/success", CancelURL: "https://shop/cancel"}

	sess, err := o.ForOrder(context.Background(), orderView())
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "https://pay.example.com/cs_1", sess.URL)

	p := fp.gotParams
	assert.Equal(t, ModePayment, p.Mode)
	assert.Equal(t, "order-1", p.Reference)
	assert.Equal(t, "order-1", p.Metadata["order_id"])
	assert.Equal(t, 350, p.AmountCents)
	assert.Equal(t, "CZK", p.Currency)
	assert.Equal(t, "https://shop/success", p.SuccessURL)
	require.Len(t, p.LineItems, 2)
	assert.Equal(t, "Item A", p.LineItems[0].Title)
	assert.Equal(t, 100, p.LineItems[0].UnitCents)
}

func TestForOrderProviderFailure(t *testing.T) {
	fp := &fakeProvider{err: ErrProvider}
	o := &Orchestrator{Provider: fp}

	_, err := o.ForOrder(context.Background(), orderView())
	assert.ErrorIs(t, err, ErrProvider)
}

func TestForSubscriptionCarriesUserAndPlan(t *testing.T) {
	fp := &fakeProvider{session: Session{ID: "cs_sub", URL: "https://pay.example.com/cs_sub"}}
	o := &Orchestrator{Provider: fp, SuccessURL: "https://shop/success", CancelURL: "https://shop/cancel"}

	plan := subscription.Plan{
		ID:               "premium",
		Currency:         "CZK",
		ProviderPriceRef: "price_premium_monthly",
	}
	_, err := o.ForSubscription(context.Background(), "u1", plan)
	require.NoError(t, err)

	p := fp.gotParams
	assert.Equal(t, ModeSubscription, p.Mode)
	assert.Equal(t, "u1:premium", p.Reference)
	assert.Equal(t, "u1", p.Metadata["user_id"])
	assert.Equal(t, "premium", p.Metadata["plan_id"])
	assert.Equal(t, "price_premium_monthly", p.PriceRef)
	assert.Zero(t, p.AmountCents) // provider derives the price from the plan ref
}
