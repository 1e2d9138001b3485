package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/middleware"
	"github.com/reelforge/reelforge-api/internal/pkg/jwt"
)

func newTestJWT() *jwt.Service {
	return jwt.NewService("test-secret", 15*time.Minute, 24*time.Hour)
}

func TestAuthPassesValidToken(t *testing.T) {
	jwtService := newTestJWT()
	userID := uuid.New()

	token, err := jwtService.GenerateAccessToken(userID, "user@test.local", "user", false)
	if err != nil {
		t.Fatal(err)
	}

	var gotUserID uuid.UUID
	var gotRole, gotEmail string
	handler := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = middleware.GetUserID(r.Context())
		gotRole = middleware.GetRole(r.Context())
		gotEmail = middleware.GetEmail(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != userID || gotRole != "user" || gotEmail != "user@test.local" {
		t.Fatalf("context: id=%s role=%s email=%s", gotUserID, gotRole, gotEmail)
	}
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	handler := middleware.Auth(newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	handler := middleware.Auth(newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"Bearer", "Basic abc", "bearer-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthRejectsTokenFromOtherSecret(t *testing.T) {
	other := jwt.NewService("different-secret", 15*time.Minute, 24*time.Hour)
	token, err := other.GenerateAccessToken(uuid.New(), "user@test.local", "user", false)
	if err != nil {
		t.Fatal(err)
	}

	handler := middleware.Auth(newTestJWT())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthBlocksBannedUser(t *testing.T) {
	jwtService := newTestJWT()
	token, err := jwtService.GenerateAccessToken(uuid.New(), "banned@test.local", "user", true)
	if err != nil {
		t.Fatal(err)
	}

	handler := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}
