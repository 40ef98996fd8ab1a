package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/subapavel/samofujera/internal/orders"
	"github.com/subapavel/samofujera/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client
}

type lineItemResp struct {
	ItemID     string              `json:"item_id"`
	VariantID  string              `json:"variant_id,omitempty"`
	Qty        int                 `json:"qty"`
	UnitCents  int                 `json:"unit_cents"`
	TotalCents int                 `json:"total_cents"`
	Snapshot   orders.ItemSnapshot `json:"snapshot"`
}

type orderResp struct {
	ID         string           `json:"id"`
	Status     orders.Status    `json:"status"`
	TotalCents int              `json:"total_cents"`
	Currency   string           `json:"currency"`
	Items      []lineItemResp   `json:"items"`
	Shipping   *orders.Shipping `json:"shipping,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	buyer := userID(r)
	if buyer == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	v, err := h.Service.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) || (err == nil && v.BuyerID != buyer) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := orderResp{
		ID:         v.ID,
		Status:     v.Status,
		TotalCents: v.TotalCents,
		Currency:   v.Currency,
		Shipping:   v.Shipping,
		CreatedAt:  v.CreatedAt,
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, lineItemResp{
			ItemID:     it.ItemID,
			VariantID:  it.VariantID,
			Qty:        it.Qty,
			UnitCents:  it.UnitCents,
			TotalCents: it.TotalCents,
			Snapshot:   it.Snapshot,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// getStatus is the polling endpoint for "did my payment land yet": cached
// read-through with a short TTL because PAID arrives via webhook at any time.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := redisx.OrderStatusKey(orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	v, err := h.Service.Get(ctx, orderID)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	b, _ := json.Marshal(map[string]any{"status": v.Status})
	if h.Redis != nil {
		_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
