package redemption

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type redeemRequest struct {
	Code string `json:"code" validate:"required,min=6,max=32"`
}

type redeemResponse struct {
	Code      string `json:"code"`
	Credits   int64  `json:"credits"`
	NewAmount int64  `json:"balance"`
}

// Redeem consumes a code for the authenticated user
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req redeemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c, txn, err := h.svc.Redeem(r.Context(), userID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Code not found")
		case errors.Is(err, ErrAlreadyRedeemed):
			response.Error(w, http.StatusConflict, "ALREADY_REDEEMED", "Code was already redeemed")
		case errors.Is(err, ErrExpired):
			response.Error(w, http.StatusConflict, "CODE_EXPIRED", "Code has expired")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, redeemResponse{
		Code:      c.Code,
		Credits:   c.Credits,
		NewAmount: txn.BalanceAfter,
	})
}

// Routes mounts the user-facing redemption endpoint
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/redeem", h.Redeem)
	return r
}
