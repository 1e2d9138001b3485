package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
	"github.com/reelforge/reelforge-api/internal/domain/order"
	"github.com/reelforge/reelforge-api/internal/domain/redemption"
	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/validator"
)

type identityKey struct{}

// Handler serves the back office
type Handler struct {
	svc        *Service
	authorizer Authorizer
	codes      *redemption.Service
	orders     order.Repository
	credits    credit.Service
}

func NewHandler(svc *Service, authorizer Authorizer, codes *redemption.Service,
	orders order.Repository, credits credit.Service) *Handler {
	return &Handler{
		svc:        svc,
		authorizer: authorizer,
		codes:      codes,
		orders:     orders,
		credits:    credits,
	}
}

// Guard authorizes every back-office request and stashes the admin
// identity for audit logging.
func (h *Handler) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := h.authorizer.Authorize(r.Context())
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				response.Unauthorized(w, "unauthorized")
				return
			}
			response.Forbidden(w, "Admin access required")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) *AdminIdentity {
	identity, _ := ctx.Value(identityKey{}).(*AdminIdentity)
	return identity
}

type adminUserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Nickname      string    `json:"nickname"`
	Role          string    `json:"role"`
	IsBanned      bool      `json:"is_banned"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListUsers searches accounts
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	users, total, err := h.svc.ListUsers(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResponse{
			ID:            u.ID,
			Email:         u.Email.String,
			Phone:         u.Phone.String,
			Nickname:      u.Nickname,
			Role:          string(u.Role),
			IsBanned:      u.IsBanned,
			EmailVerified: u.EmailVerified,
			CreatedAt:     u.CreatedAt,
		})
	}

	response.WithMeta(w, out, response.Meta{Total: total, Limit: limit, Offset: offset})
}

// BanUser bans or unbans an account
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req struct {
		Banned bool `json:"banned"`
	}
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.svc.SetUserBanned(r.Context(), identityFrom(r.Context()), userID, req.Banned); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"banned": req.Banned})
}

// DeleteUser removes an account with cascade
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	identity := identityFrom(r.Context())
	if identity.UserID == userID {
		response.Conflict(w, "Refusing to delete your own account")
		return
	}

	if err := h.svc.DeleteUser(r.Context(), identity, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

type grantCreditsRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

// GrantCredits adds credits to a user's account
func (h *Handler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req grantCreditsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	txn, err := h.svc.GrantCredits(r.Context(), identityFrom(r.Context()), userID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, credit.ErrInvalidAmount) {
			response.BadRequest(w, "amount must be positive")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"balance": txn.BalanceAfter})
}

type freezeCreditsRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Freeze bool   `json:"freeze"`
}

// FreezeCredits moves credits between available and frozen
func (h *Handler) FreezeCredits(w http.ResponseWriter, r *http.Request) {
	var req freezeCreditsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	err = h.svc.FreezeCredits(r.Context(), identityFrom(r.Context()), userID, req.Amount, req.Freeze)
	if err != nil {
		switch {
		case errors.Is(err, credit.ErrInsufficientCredits):
			response.Error(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Not enough available credits to freeze")
		case errors.Is(err, credit.ErrInsufficientFrozen):
			response.Conflict(w, "Not enough frozen credits to release")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// SearchTransactions filters the full ledger
func (h *Handler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := credit.SearchFilters{}
	if v := q.Get("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := q.Get("tx_type"); v != "" {
		filters.TxType = &v
	}
	if v := q.Get("ref_type"); v != "" {
		filters.RefType = &v
	}
	if v := q.Get("ref_id"); v != "" {
		filters.RefID = &v
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateFrom = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateTo = &t
		}
	}
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))
	filters.Offset, _ = strconv.Atoi(q.Get("offset"))

	transactions, err := h.credits.SearchTransactions(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	type row struct {
		ID            uuid.UUID `json:"id"`
		UserID        uuid.UUID `json:"user_id"`
		Amount        int64     `json:"amount"`
		TxType        string    `json:"tx_type"`
		BalanceBefore int64     `json:"balance_before"`
		BalanceAfter  int64     `json:"balance_after"`
		RefType       *string   `json:"ref_type,omitempty"`
		RefID         *string   `json:"ref_id,omitempty"`
		Description   string    `json:"description"`
		CreatedAt     time.Time `json:"created_at"`
	}

	out := make([]row, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, row{
			ID:            t.ID,
			UserID:        t.UserID,
			Amount:        t.Amount,
			TxType:        string(t.TxType),
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
			RefType:       t.RefType,
			RefID:         t.RefID,
			Description:   t.Description,
			CreatedAt:     t.CreatedAt,
		})
	}

	response.OK(w, out)
}

type generateCodesRequest struct {
	Count      int   `json:"count" validate:"required,gte=1,lte=1000"`
	Credits    int64 `json:"credits" validate:"required,gt=0"`
	ExpiryDays int   `json:"expiry_days" validate:"omitempty,gte=1,lte=3650"`
}

type codeResponse struct {
	Code      string `json:"code"`
	Credits   int64  `json:"credits"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// GenerateCodes issues a batch of redemption codes
func (h *Handler) GenerateCodes(w http.ResponseWriter, r *http.Request) {
	var req generateCodesRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	identity := identityFrom(r.Context())
	codes, err := h.codes.Generate(r.Context(), identity.UserID, req.Count, req.Credits, req.ExpiryDays)
	if err != nil {
		switch {
		case errors.Is(err, redemption.ErrInvalidCount):
			response.ValidationError(w, map[string]string{"count": "Count must be between 1 and 1000"})
		case errors.Is(err, redemption.ErrInvalidCredits):
			response.ValidationError(w, map[string]string{"credits": "Credits must be positive"})
		default:
			response.InternalError(w)
		}
		return
	}

	h.svc.OpLog().Record(r.Context(), identity, "codes.generate", "batch", codes[0].BatchID.String,
		map[string]interface{}{"count": req.Count, "credits": req.Credits})

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		cr := codeResponse{Code: c.Code, Credits: c.Credits, Status: string(c.Status)}
		if c.ExpiresAt.Valid {
			cr.ExpiresAt = c.ExpiresAt.Time.Format(time.RFC3339)
		}
		out = append(out, cr)
	}

	response.Created(w, out)
}

// VoidCode retires an active code
func (h *Handler) VoidCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.codes.Void(r.Context(), code); err != nil {
		switch {
		case errors.Is(err, redemption.ErrNotFound):
			response.NotFound(w, "Code not found")
		case errors.Is(err, redemption.ErrNotActive):
			response.Conflict(w, "Code is not active")
		default:
			response.InternalError(w)
		}
		return
	}

	h.svc.OpLog().Record(r.Context(), identityFrom(r.Context()), "codes.void", "code", code, nil)
	response.NoContent(w)
}

// ListCodes returns codes with optional status/batch filters
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var status *redemption.Status
	if v := q.Get("status"); v != "" {
		s := redemption.Status(v)
		status = &s
	}
	var batchID *string
	if v := q.Get("batch_id"); v != "" {
		batchID = &v
	}

	codes, total, err := h.codes.List(r.Context(), status, batchID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		cr := codeResponse{Code: c.Code, Credits: c.Credits, Status: string(c.Status)}
		if c.ExpiresAt.Valid {
			cr.ExpiresAt = c.ExpiresAt.Time.Format(time.RFC3339)
		}
		out = append(out, cr)
	}

	response.WithMeta(w, out, response.Meta{Total: total, Limit: limit, Offset: offset})
}

type packageRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Credits    int64  `json:"credits" validate:"required,gt=0"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
	Active     bool   `json:"active"`
	SortOrder  int    `json:"sort_order"`
}

// CreatePackage adds a purchasable bundle
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var req packageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p := &order.Package{
		ID:         uuid.New(),
		Name:       req.Name,
		Credits:    req.Credits,
		PriceCents: req.PriceCents,
		Active:     req.Active,
		SortOrder:  req.SortOrder,
	}
	if err := h.orders.CreatePackage(r.Context(), p); err != nil {
		response.InternalError(w)
		return
	}

	h.svc.OpLog().Record(r.Context(), identityFrom(r.Context()), "package.create", "package", p.ID.String(),
		map[string]interface{}{"name": p.Name, "credits": p.Credits, "price_cents": p.PriceCents})
	response.Created(w, p)
}

// UpdatePackage edits a bundle
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid package id")
		return
	}

	var req packageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p := &order.Package{
		ID:         id,
		Name:       req.Name,
		Credits:    req.Credits,
		PriceCents: req.PriceCents,
		Active:     req.Active,
		SortOrder:  req.SortOrder,
	}
	if err := h.orders.UpdatePackage(r.Context(), p); err != nil {
		if errors.Is(err, order.ErrPackageNotFound) {
			response.NotFound(w, "Package not found")
			return
		}
		response.InternalError(w)
		return
	}

	h.svc.OpLog().Record(r.Context(), identityFrom(r.Context()), "package.update", "package", id.String(),
		map[string]interface{}{"name": p.Name, "active": p.Active})
	response.OK(w, p)
}

// ListAllPackages includes inactive bundles
func (h *Handler) ListAllPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.orders.ListPackages(r.Context(), false)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, packages)
}

// GetStats returns the platform overview
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}

// ListOperationLogs returns the audit trail
func (h *Handler) ListOperationLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.svc.OpLog().List(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, logs)
}

// Routes mounts the back office behind auth + guard
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(h.Guard)

	r.Get("/users", h.ListUsers)
	r.Post("/users/{id}/ban", h.BanUser)
	r.Delete("/users/{id}", h.DeleteUser)

	r.Post("/credits/grant", h.GrantCredits)
	r.Post("/credits/freeze", h.FreezeCredits)
	r.Get("/credits/transactions", h.SearchTransactions)

	r.Post("/codes", h.GenerateCodes)
	r.Get("/codes", h.ListCodes)
	r.Post("/codes/{code}/void", h.VoidCode)

	r.Get("/packages", h.ListAllPackages)
	r.Post("/packages", h.CreatePackage)
	r.Put("/packages/{id}", h.UpdatePackage)

	r.Get("/stats", h.GetStats)
	r.Get("/logs", h.ListOperationLogs)

	return r
}
