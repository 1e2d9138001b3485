package generation

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
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

type submitRequest struct {
	Prompt          string   `json:"prompt" validate:"required,min=3,max=2000"`
	DurationSeconds int      `json:"duration_seconds" validate:"required,video_duration"`
	AspectRatio     string   `json:"aspect_ratio" validate:"aspect_ratio"`
	ReferenceImages []string `json:"reference_images" validate:"omitempty,max=4,dive,url"`
}

type generationResponse struct {
	ID              uuid.UUID `json:"id"`
	Prompt          string    `json:"prompt"`
	DurationSeconds int       `json:"duration_seconds"`
	AspectRatio     string    `json:"aspect_ratio,omitempty"`
	ReferenceImages []string  `json:"reference_images,omitempty"`
	Status          string    `json:"status"`
	ResultURLs      []string  `json:"result_urls,omitempty"`
	CostCredits     int64     `json:"cost_credits"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       string    `json:"created_at"`
	CompletedAt     string    `json:"completed_at,omitempty"`
}

func toGenerationResponse(g *Generation) generationResponse {
	resp := generationResponse{
		ID:              g.ID,
		Prompt:          g.Prompt,
		DurationSeconds: g.DurationSeconds,
		AspectRatio:     g.AspectRatio,
		ReferenceImages: g.ReferenceImages,
		Status:          string(g.Status),
		ResultURLs:      g.ResultURLs,
		CostCredits:     g.CostCredits,
		ErrorMessage:    g.ErrorMessage.String,
		CreatedAt:       g.CreatedAt.Format(time.RFC3339),
	}
	if g.CompletedAt.Valid {
		resp.CompletedAt = g.CompletedAt.Time.Format(time.RFC3339)
	}
	return resp
}

// Submit creates a generation job
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req submitRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	g, err := h.svc.Submit(r.Context(), userID, SubmitInput{
		Prompt:          req.Prompt,
		DurationSeconds: req.DurationSeconds,
		AspectRatio:     req.AspectRatio,
		ReferenceImages: req.ReferenceImages,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDuration):
			response.ValidationError(w, map[string]string{"duration_seconds": "Invalid duration. Must be 5, 10, 15 or 30 seconds"})
		case errors.Is(err, ErrTooManyImages):
			response.ValidationError(w, map[string]string{"reference_images": "At most 4 reference images are allowed"})
		case errors.Is(err, credit.ErrInsufficientCredits):
			response.Error(w, http.StatusConflict, "INSUFFICIENT_CREDITS", "Not enough credits for this generation")
		case errors.Is(err, ErrProvider):
			response.BadGateway(w, "Video provider is unavailable, try again later")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, toGenerationResponse(g))
}

// Get returns one of the user's jobs
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid generation id")
		return
	}

	g, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.writeGetError(w, err)
		return
	}

	response.OK(w, toGenerationResponse(g))
}

// Sync polls the provider and reconciles the job state
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid generation id")
		return
	}

	g, err := h.svc.Sync(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrProvider) {
			response.BadGateway(w, "Video provider is unavailable, try again later")
			return
		}
		h.writeGetError(w, err)
		return
	}

	response.OK(w, toGenerationResponse(g))
}

// List returns the user's jobs with pagination
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

	generations, total, err := h.svc.List(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]generationResponse, 0, len(generations))
	for i := range generations {
		out = append(out, toGenerationResponse(&generations[i]))
	}

	response.WithMeta(w, out, response.Meta{Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) writeGetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotOwner):
		// Ownership failures look like absence to the caller
		response.NotFound(w, "Generation not found")
	default:
		response.InternalError(w)
	}
}

// Routes mounts the generation endpoints
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/sync", h.Sync)
	return r
}
