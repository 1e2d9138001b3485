package order

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/pkg/paygate"
)

// WebhookHandler receives signed payment gateway result callbacks
type WebhookHandler struct {
	svc    *Service
	config paygate.Config
}

func NewWebhookHandler(svc *Service, config paygate.Config) *WebhookHandler {
	return &WebhookHandler{svc: svc, config: config}
}

// HandleResult verifies the callback signature and completes the order.
// The gateway expects a bare "OK<invoice>" body on success and retries
// on anything else.
func (h *WebhookHandler) HandleResult(w http.ResponseWriter, r *http.Request) {
	notification, err := paygate.ParseResult(h.config, r)
	if err != nil {
		if errors.Is(err, paygate.ErrBadSignature) {
			log.Warn().Msg("Payment callback with invalid signature")
			http.Error(w, "bad signature", http.StatusForbidden)
			return
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	o, err := h.svc.HandlePaymentResult(r.Context(), notification)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			http.Error(w, "unknown invoice", http.StatusNotFound)
		case errors.Is(err, ErrAmountMismatch):
			http.Error(w, "amount mismatch", http.StatusConflict)
		default:
			log.Error().Err(err).Int64("invoice_id", notification.InvoiceID).Msg("Payment completion failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(paygate.SuccessResponse(o.InvoiceID)))
}
