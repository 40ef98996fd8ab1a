package httpx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subapavel/samofujera/internal/webhook"
)

type stubSettler struct{ calls int }

func (s *stubSettler) MarkPaid(ctx context.Context, orderID, paymentRef string) error {
	s.calls++
	return nil
}

const testSecret = "whsec_http"

func newWebhookRouter(settler *stubSettler) http.Handler {
	r := NewRouter()
	(&WebhookHandler{Gateway: &webhook.Gateway{Secret: testSecret, Orders: settler}}).Register(r)
	return r
}

func post(t *testing.T, h http.Handler, body []byte, sig string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set(webhook.SignatureHeader, sig)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpointAcceptsSignedEvent(t *testing.T) {
	settler := &stubSettler{}
	h := newWebhookRouter(settler)

	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"payment_ref":"pay_1","metadata":{"order_id":"o1"}}}`)
	w := post(t, h, body, webhook.Sign(testSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, settler.calls)
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	settler := &stubSettler{}
	h := newWebhookRouter(settler)

	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"payment_ref":"pay_1","metadata":{"order_id":"o1"}}}`)
	w := post(t, h, body, "deadbeef")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, settler.calls)

	// Missing header entirely.
	w = post(t, h, body, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, settler.calls)
}

func TestWebhookEndpointAcksUnknownType(t *testing.T) {
	settler := &stubSettler{}
	h := newWebhookRouter(settler)

	body := []byte(`{"id":"evt_2","type":"charge.refunded","data":{}}`)
	w := post(t, h, body, webhook.Sign(testSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, settler.calls)
}
