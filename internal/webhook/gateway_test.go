package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subapavel/samofujera/internal/subscription"
)

// --- mocks ---

type mockSettler struct {
	calls []string // orderID:paymentRef
	err   error
}

func (m *mockSettler) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	m.calls = append(m.calls, orderID+":"+paymentRef)
	return m.err
}

type mockApplier struct {
	signals []subscription.Signal
}

func (m *mockApplier) Apply(ctx context.Context, sig subscription.Signal) error {
	m.signals = append(m.signals, sig)
	return nil
}

type mapDedup struct{ seen map[string]bool }

func (m *mapDedup) Seen(ctx context.Context, id string) (bool, error) { return m.seen[id], nil }
func (m *mapDedup) Mark(ctx context.Context, id string) error         { m.seen[id] = true; return nil }

const secret = "whsec_test"

func newGateway() (*Gateway, *mockSettler, *mockApplier) {
	s := &mockSettler{}
	a := &mockApplier{}
	g := &Gateway{
		Secret: secret,
		Orders: s,
		Subs:   a,
		Dedup:  &mapDedup{seen: map[string]bool{}},
	}
	return g, s, a
}

func event(t *testing.T, id, typ string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	b, err := json.Marshal(Event{ID: id, Type: typ, Data: raw})
	require.NoError(t, err)
	return b
}

// --- tests ---

func TestSignRoundTrip(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	sig := Sign(secret, body)
	assert.True(t, Verify(secret, body, sig))
	assert.False(t, Verify(secret, []byte(`{"hello":"worlds"}`), sig))
	assert.False(t, Verify("other-secret", body, sig))
	assert.False(t, Verify(secret, body, "not-hex"))
}

func TestInvalidSignatureHasNoSideEffects(t *testing.T) {
	g, s, a := newGateway()
	body := event(t, "evt_1", EventCheckoutCompleted, checkoutCompletedData{
		PaymentRef: "pay_1",
		Metadata:   map[string]string{"order_id": "o1"},
	})

	err := g.Process(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, ErrBadSignature)
	assert.Empty(t, s.calls)
	assert.Empty(t, a.signals)
}

func TestMalformedPayload(t *testing.T) {
	g, s, _ := newGateway()
	body := []byte(`{"id": truncated`)
	err := g.Process(context.Background(), body, Sign(secret, body))
	assert.ErrorIs(t, err, ErrBadPayload)
	assert.Empty(t, s.calls)
}

func TestUnknownEventTypeIsAcked(t *testing.T) {
	g, s, a := newGateway()
	body := event(t, "evt_2", "invoice.finalized", map[string]string{})
	err := g.Process(context.Background(), body, Sign(secret, body))
	assert.NoError(t, err)
	assert.Empty(t, s.calls)
	assert.Empty(t, a.signals)
}

func TestCheckoutCompletedMarksOrderPaid(t *testing.T) {
	g, s, _ := newGateway()
	body := event(t, "evt_3", EventCheckoutCompleted, checkoutCompletedData{
		SessionID:  "cs_1",
		PaymentRef: "pay_9",
		Metadata:   map[string]string{"order_id": "order-42"},
	})
	require.NoError(t, g.Process(context.Background(), body, Sign(secret, body)))
	assert.Equal(t, []string{"order-42:pay_9"}, s.calls)
}

func TestCheckoutCompletedWithoutOrderIsAcked(t *testing.T) {
	g, s, _ := newGateway()
	body := event(t, "evt_4", EventCheckoutCompleted, checkoutCompletedData{
		SessionID: "cs_sub",
		Metadata:  map[string]string{"user_id": "u1", "plan_id": "p1"},
	})
	require.NoError(t, g.Process(context.Background(), body, Sign(secret, body)))
	assert.Empty(t, s.calls)
}

func TestDuplicateDeliveryShortCircuits(t *testing.T) {
	g, s, _ := newGateway()
	body := event(t, "evt_5", EventCheckoutCompleted, checkoutCompletedData{
		PaymentRef: "pay_1",
		Metadata:   map[string]string{"order_id": "o1"},
	})
	sig := Sign(secret, body)

	require.NoError(t, g.Process(context.Background(), body, sig))
	require.NoError(t, g.Process(context.Background(), body, sig))
	assert.Len(t, s.calls, 1)
}

func TestSubscriptionEventsBecomeSignals(t *testing.T) {
	g, _, a := newGateway()

	body := event(t, "evt_6", EventSubscriptionCreated, subscriptionData{
		SubscriptionRef:    "sub_1",
		Status:             "trialing",
		PlanRef:            "price_basic",
		CurrentPeriodStart: 1700000000,
		CurrentPeriodEnd:   1702592000,
		Metadata:           map[string]string{"user_id": "u1", "plan_id": "basic"},
	})
	require.NoError(t, g.Process(context.Background(), body, Sign(secret, body)))

	body = event(t, "evt_7", EventSubscriptionDeleted, subscriptionData{
		SubscriptionRef: "sub_1",
		Status:          "canceled",
	})
	require.NoError(t, g.Process(context.Background(), body, Sign(secret, body)))

	require.Len(t, a.signals, 2)

	created := a.signals[0]
	assert.Equal(t, subscription.SignalCreated, created.Kind)
	assert.Equal(t, "sub_1", created.ExternalRef)
	assert.Equal(t, "trialing", created.ProviderStatus)
	assert.Equal(t, "u1", created.UserID)
	assert.Equal(t, "basic", created.PlanID)
	assert.False(t, created.PeriodEnd.IsZero())

	deleted := a.signals[1]
	assert.Equal(t, subscription.SignalDeleted, deleted.Kind)
	assert.Equal(t, "sub_1", deleted.ExternalRef)
	assert.True(t, deleted.PeriodEnd.IsZero())
}

func TestSettlerErrorPropagatesForRetry(t *testing.T) {
	g, s, _ := newGateway()
	s.err = assert.AnError
	body := event(t, "evt_8", EventCheckoutCompleted, checkoutCompletedData{
		PaymentRef: "pay_1",
		Metadata:   map[string]string{"order_id": "o1"},
	})
	err := g.Process(context.Background(), body, Sign(secret, body))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadSignature)
	assert.NotErrorIs(t, err, ErrBadPayload)

	// A failed event is not marked processed; redelivery must reach the
	// settler again.
	s.err = nil
	require.NoError(t, g.Process(context.Background(), body, Sign(secret, body)))
	assert.Len(t, s.calls, 2)
}
