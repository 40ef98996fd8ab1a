package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/subapavel/samofujera/internal/checkout"
	"github.com/subapavel/samofujera/internal/orders"
	"github.com/subapavel/samofujera/internal/subscription"
)

type CheckoutHandler struct {
	Orders       *orders.Service
	Plans        subscription.PlanStore
	Subs         subscription.Store
	Provider     checkout.ProviderClient
	Orchestrator *checkout.Orchestrator
}

type CreateCheckoutReq struct {
	Currency string             `json:"currency"`
	Items    []orders.ItemInput `json:"items"`
	Shipping *orders.Shipping   `json:"shipping,omitempty"`
}

type CheckoutResp struct {
	OrderID     string `json:"order_id,omitempty"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type SubscribeReq struct {
	PlanID string `json:"plan_id"`
}

func isCartError(err error) bool {
	return errors.Is(err, orders.ErrEmptyCart) ||
		errors.Is(err, orders.ErrInvalidQty) ||
		errors.Is(err, orders.ErrNotPurchasable) ||
		errors.Is(err, orders.ErrMissingCurrency)
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.create)
	r.Post("/checkout/orders/{id}/session", h.retrySession)
	r.Post("/memberships/subscribe", h.subscribe)
	r.Post("/memberships/cancel", h.cancelMembership)
}

// create writes the order first, then asks the provider for a session. A
// provider failure leaves the order PENDING; the retry endpoint re-issues a
// session for it without creating a second order.
func (h *CheckoutHandler) create(w http.ResponseWriter, r *http.Request) {
	buyer := userID(r)
	if buyer == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req CreateCheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Orders.Create(ctx, buyer, req.Currency, req.Items, req.Shipping)
	if err != nil {
		if isCartError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	sess, err := h.Orchestrator.ForOrder(ctx, v)
	if err != nil {
		// Order stays PENDING and retryable by order id.
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":    "checkout session failed",
			"order_id": v.ID,
		})
		return
	}

	writeJSON(w, http.StatusCreated, CheckoutResp{
		OrderID:     v.ID,
		SessionID:   sess.ID,
		RedirectURL: sess.URL,
	})
}

func (h *CheckoutHandler) retrySession(w http.ResponseWriter, r *http.Request) {
	buyer := userID(r)
	if buyer == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	v, err := h.Orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if v.BuyerID != buyer {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if v.Status != orders.StatusPending {
		writeError(w, http.StatusConflict, "order is not awaiting payment")
		return
	}

	sess, err := h.Orchestrator.ForOrder(ctx, v)
	if err != nil {
		writeError(w, http.StatusBadGateway, "checkout session failed")
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResp{
		OrderID:     v.ID,
		SessionID:   sess.ID,
		RedirectURL: sess.URL,
	})
}

func (h *CheckoutHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	buyer := userID(r)
	if buyer == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req SubscribeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "missing plan_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	plan, err := h.Plans.GetPlan(ctx, req.PlanID)
	if errors.Is(err, subscription.ErrPlanNotFound) {
		writeError(w, http.StatusBadRequest, "unknown plan")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess, err := h.Orchestrator.ForSubscription(ctx, buyer, plan)
	if err != nil {
		writeError(w, http.StatusBadGateway, "checkout session failed")
		return
	}
	writeJSON(w, http.StatusCreated, CheckoutResp{
		SessionID:   sess.ID,
		RedirectURL: sess.URL,
	})
}

// cancelMembership asks the provider to cancel the user's active
// subscription. The local row is not touched here: the cancellation lands
// through the provider's deletion webhook like every other lifecycle change.
func (h *CheckoutHandler) cancelMembership(w http.ResponseWriter, r *http.Request) {
	buyer := userID(r)
	if buyer == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sub, err := h.Subs.ActiveForUser(ctx, buyer, time.Now().UTC())
	if errors.Is(err, subscription.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no active subscription")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.Provider.CancelSubscription(ctx, sub.ExternalRef); err != nil {
		writeError(w, http.StatusBadGateway, "provider cancel failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancellation requested"})
}
