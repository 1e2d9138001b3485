package generation

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/veo"
)

// maxWebhookBody bounds what the provider may post
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks on the public surface
type WebhookHandler struct {
	svc *Service
}

func NewWebhookHandler(svc *Service) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// Handle normalizes a provider callback and reconciles the job.
// Returns 200 for recognized outcomes including already-terminal jobs,
// 400 for malformed payloads, 404 for unknown task ids.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "unreadable body")
		return
	}
	defer r.Body.Close()

	event, err := veo.ParseCallback(body)
	if err != nil {
		log.Warn().Err(err).Msg("Malformed provider callback")
		response.BadRequest(w, "malformed callback payload")
		return
	}

	if err := h.svc.Reconcile(r.Context(), event); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "unknown task id")
			return
		}
		log.Error().Err(err).Str("task_id", event.TaskID).Msg("Webhook reconciliation failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"received": true})
}
