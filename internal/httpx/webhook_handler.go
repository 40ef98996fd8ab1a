package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/subapavel/samofujera/internal/webhook"
)

type WebhookHandler struct {
	Gateway *webhook.Gateway
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.receive)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	// The signature covers the exact raw bytes; read them untouched.
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	err = h.Gateway.Process(r.Context(), body, r.Header.Get(webhook.SignatureHeader))
	switch {
	case errors.Is(err, webhook.ErrBadSignature), errors.Is(err, webhook.ErrBadPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		// Non-2xx makes the provider redeliver, which is what we want for
		// transient processing failures.
		writeError(w, http.StatusInternalServerError, "processing failed")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}
