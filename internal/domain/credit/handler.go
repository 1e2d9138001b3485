package credit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type accountResponse struct {
	Available   int64 `json:"available"`
	Frozen      int64 `json:"frozen"`
	TotalEarned int64 `json:"total_earned"`
	TotalUsed   int64 `json:"total_used"`
}

type transactionResponse struct {
	ID            uuid.UUID `json:"id"`
	Amount        int64     `json:"amount"`
	TxType        string    `json:"tx_type"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	RefType       *string   `json:"ref_type,omitempty"`
	RefID         *string   `json:"ref_id,omitempty"`
	Description   string    `json:"description"`
	CreatedAt     string    `json:"created_at"`
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		Amount:        t.Amount,
		TxType:        string(t.TxType),
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		RefType:       t.RefType,
		RefID:         t.RefID,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

// Balance returns the authenticated user's credit account
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	acc, err := h.svc.GetAccount(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, accountResponse{
		Available:   acc.Available,
		Frozen:      acc.Frozen,
		TotalEarned: acc.TotalEarned,
		TotalUsed:   acc.TotalUsed,
	})
}

// Transactions returns the user's paginated ledger history
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.OK(w, []transactionResponse{})
			return
		}
		response.InternalError(w)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}

	response.OK(w, out)
}

// Routes mounts the credit endpoints
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}
