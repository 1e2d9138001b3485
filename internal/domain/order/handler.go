package order

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

type purchaseRequest struct {
	PackageID string `json:"package_id" validate:"required,uuid"`
}

type packageResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Credits    int64     `json:"credits"`
	PriceCents int64     `json:"price_cents"`
}

type orderResponse struct {
	ID          uuid.UUID `json:"id"`
	PackageName string    `json:"package_name"`
	Credits     int64     `json:"credits"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	CreatedAt   string    `json:"created_at"`
}

func toOrderResponse(o *Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		PackageName: o.PackageName,
		Credits:     o.Credits,
		AmountCents: o.AmountCents,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}

// Packages lists purchasable credit bundles
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.svc.ListPackages(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]packageResponse, 0, len(packages))
	for _, p := range packages {
		out = append(out, packageResponse{ID: p.ID, Name: p.Name, Credits: p.Credits, PriceCents: p.PriceCents})
	}

	response.OK(w, out)
}

// Purchase creates an order and returns the gateway checkout URL
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req purchaseRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	packageID, err := uuid.Parse(req.PackageID)
	if err != nil {
		response.BadRequest(w, "invalid package id")
		return
	}

	o, paymentURL, err := h.svc.InitPurchase(r.Context(), userID, packageID)
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			response.NotFound(w, "Package not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, map[string]interface{}{
		"order":       toOrderResponse(o),
		"payment_url": paymentURL,
	})
}

// Cancel cancels the user's pending order
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid order id")
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, orderID); err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			response.NotFound(w, "Order not found")
		case errors.Is(err, ErrNotPending):
			response.Conflict(w, "Order is no longer pending")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// List returns the user's orders
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
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

	orders, total, err := h.svc.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}

	response.WithMeta(w, out, response.Meta{Total: total, Limit: limit, Offset: offset})
}

// Routes mounts the order endpoints. Package listing is public.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/packages", h.Packages)

	r.Group(func(pr chi.Router) {
		pr.Use(authMiddleware)
		pr.Post("/", h.Purchase)
		pr.Get("/", h.List)
		pr.Post("/{id}/cancel", h.Cancel)
	})

	return r
}
