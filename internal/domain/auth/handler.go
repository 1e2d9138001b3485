package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/response"
	"github.com/reelforge/reelforge-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SendCode issues a verification code to an email or phone
func (h *Handler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	if req.Channel == ChannelPhone {
		if err := validator.ValidateVar(req.Destination, "e164"); err != nil {
			response.ValidationError(w, map[string]string{"destination": "Invalid phone number, expected E.164 format"})
			return
		}
	} else {
		if err := validator.ValidateVar(req.Destination, "email"); err != nil {
			response.ValidationError(w, map[string]string{"destination": "Invalid email format"})
			return
		}
	}

	if err := h.svc.SendCode(r.Context(), req.Channel, req.Destination); err != nil {
		if errors.Is(err, ErrCodeCooldown) {
			response.TooManyRequests(w)
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"sent": true})
}

// Register creates an account from a verified code
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	resp, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.svc.RecordLogin(r.Context(), resp.User.ID, clientIP(r))
	response.Created(w, resp)
}

// LoginPassword authenticates with identifier + password
func (h *Handler) LoginPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordLoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	resp, err := h.svc.LoginPassword(r.Context(), &req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.svc.RecordLogin(r.Context(), resp.User.ID, clientIP(r))
	response.OK(w, resp)
}

// LoginCode authenticates with a verification code
func (h *Handler) LoginCode(w http.ResponseWriter, r *http.Request) {
	var req CodeLoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	resp, err := h.svc.LoginCode(r.Context(), &req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.svc.RecordLogin(r.Context(), resp.User.ID, clientIP(r))
	response.OK(w, resp)
}

// LoginGoogle authenticates via Google OAuth code exchange
func (h *Handler) LoginGoogle(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	resp, err := h.svc.LoginGoogle(r.Context(), req.Code)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	h.svc.RecordLogin(r.Context(), resp.User.ID, clientIP(r))
	response.OK(w, resp)
}

// Refresh rotates the refresh token
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	resp, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	response.OK(w, resp)
}

// Logout invalidates the refresh token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid credentials")
	case errors.Is(err, ErrInvalidCode):
		response.Unauthorized(w, "Invalid verification code")
	case errors.Is(err, ErrCodeExpired):
		response.Unauthorized(w, "Verification code expired, request a new one")
	case errors.Is(err, ErrTooManyAttempts):
		response.TooManyRequests(w)
	case errors.Is(err, ErrCodeCooldown):
		response.TooManyRequests(w)
	case errors.Is(err, ErrUserBanned):
		response.Forbidden(w, "Your account has been banned")
	case errors.Is(err, ErrInvalidChannel):
		response.BadRequest(w, "channel must be email or phone")
	case errors.Is(err, user.ErrEmailTaken):
		response.Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrPhoneTaken):
		response.Conflict(w, "Phone already registered")
	case errors.Is(err, ErrRefreshTokenRequired), errors.Is(err, ErrInvalidRefreshToken):
		response.Unauthorized(w, "Invalid refresh token")
	case errors.Is(err, ErrUserNotFound):
		response.Unauthorized(w, "Invalid refresh token")
	case errors.Is(err, ErrOAuthExchange):
		response.BadGateway(w, "Sign-in provider is unavailable")
	default:
		response.InternalError(w)
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	return r.RemoteAddr
}

// Routes mounts the public auth endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/code/send", h.SendCode)
	r.Post("/register", h.Register)
	r.Post("/login", h.LoginPassword)
	r.Post("/login/code", h.LoginCode)
	r.Post("/login/google", h.LoginGoogle)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	return r
}
