package admin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain/admin"
	"github.com/reelforge/reelforge-api/internal/middleware"
)

func authedContext(userID uuid.UUID, role, email string) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.RoleKey, role)
	return context.WithValue(ctx, middleware.EmailKey, email)
}

func TestAuthorizeAdminRole(t *testing.T) {
	a := admin.NewAllowListAuthorizer(nil)
	userID := uuid.New()

	identity, err := a.Authorize(authedContext(userID, "admin", "ops@reelforge.app"))
	if err != nil {
		t.Fatalf("admin role rejected: %v", err)
	}
	if identity.UserID != userID {
		t.Fatalf("identity user = %s, want %s", identity.UserID, userID)
	}
}

func TestAuthorizeAllowListEmail(t *testing.T) {
	a := admin.NewAllowListAuthorizer([]string{" Boss@ReelForge.app "})

	identity, err := a.Authorize(authedContext(uuid.New(), "user", "BOSS@reelforge.app"))
	if err != nil {
		t.Fatalf("allow-listed email rejected: %v", err)
	}
	if identity.Email != "boss@reelforge.app" {
		t.Fatalf("identity email = %q", identity.Email)
	}
}

func TestAuthorizeRegularUserForbidden(t *testing.T) {
	a := admin.NewAllowListAuthorizer([]string{"boss@reelforge.app"})

	_, err := a.Authorize(authedContext(uuid.New(), "user", "someone@reelforge.app"))
	if !errors.Is(err, admin.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizeNoIdentity(t *testing.T) {
	a := admin.NewAllowListAuthorizer([]string{"boss@reelforge.app"})

	_, err := a.Authorize(context.Background())
	if !errors.Is(err, admin.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
