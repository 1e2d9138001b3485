package upload

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/storage"
)

const maxUploadSize = 20 * 1024 * 1024 // multipart envelope

// Handler serves upload HTTP requests
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type uploadResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	ThumbURL  string    `json:"thumb_url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(u *Upload) uploadResponse {
	return uploadResponse{
		ID:        u.ID,
		Kind:      string(u.Kind),
		URL:       u.URL,
		ThumbURL:  u.ThumbURL,
		Width:     u.Width,
		Height:    u.Height,
		SizeBytes: u.SizeBytes,
		CreatedAt: u.CreatedAt,
	}
}

// Create handles POST /uploads
// Multipart form: file + kind
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	kind := Kind(r.FormValue("kind"))
	if kind == "" {
		kind = KindReference
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	userID := middleware.GetUserID(r.Context())

	u, err := h.svc.Store(r.Context(), userID, kind, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind):
			response.BadRequest(w, "Invalid kind. Must be: avatar or reference")
		case errors.Is(err, storage.ErrFileTooLarge):
			response.BadRequest(w, "File exceeds maximum size")
		case errors.Is(err, storage.ErrInvalidMimeType):
			response.BadRequest(w, "File type not allowed")
		case errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, "File is empty")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, toResponse(u))
}

// Get handles GET /uploads/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid upload ID")
		return
	}

	u, err := h.svc.Get(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, toResponse(u))
}

// List handles GET /uploads
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	var kind *Kind
	if v := q.Get("kind"); v != "" {
		k := Kind(v)
		if !k.Valid() {
			response.BadRequest(w, "Invalid kind. Must be: avatar or reference")
			return
		}
		kind = &k
	}

	uploads, err := h.svc.List(r.Context(), middleware.GetUserID(r.Context()), kind, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]uploadResponse, 0, len(uploads))
	for i := range uploads {
		out = append(out, toResponse(&uploads[i]))
	}

	response.OK(w, out)
}

// Delete handles DELETE /uploads/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid upload ID")
		return
	}

	if err := h.svc.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Upload not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "Not upload owner")
	default:
		response.InternalError(w)
	}
}

// Routes mounts authenticated upload endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	return r
}
