package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/subapavel/samofujera/internal/entitlement"
)

type EntitlementsHandler struct {
	Store entitlement.Store
}

type entitlementResp struct {
	ItemID    string     `json:"item_id"`
	Source    string     `json:"source"`
	SourceID  string     `json:"source_id"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *EntitlementsHandler) Register(r *chi.Mux) {
	r.Get("/entitlements", h.list)
	r.Get("/entitlements/{itemID}/access", h.access)
}

func (h *EntitlementsHandler) list(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	es, err := h.Store.ListForUser(ctx, user, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]entitlementResp, 0, len(es))
	for _, e := range es {
		out = append(out, entitlementResp{
			ItemID:    e.ItemID,
			Source:    string(e.Source),
			SourceID:  e.SourceID,
			GrantedAt: e.GrantedAt,
			ExpiresAt: e.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// access answers "do I own this item yet"; buyers poll it right after
// payment because granting runs async behind the webhook.
func (h *EntitlementsHandler) access(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ok, err := h.Store.HasAccess(ctx, user, chi.URLParam(r, "itemID"), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_access": ok})
}
