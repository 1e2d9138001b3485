package admin

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/middleware"
)

// AdminIdentity names the operator behind a guarded request
type AdminIdentity struct {
	UserID uuid.UUID
	Email  string
}

// Authorizer decides whether a request may reach the back office.
// The default policy is role-or-allow-list, but callers only see the
// interface so the policy can move to the DB without touching routes.
type Authorizer interface {
	Authorize(ctx context.Context) (*AdminIdentity, error)
}

// AllowListAuthorizer admits users with the admin role, plus any email
// on a static allow-list for bootstrap.
type AllowListAuthorizer struct {
	allowed map[string]bool
}

func NewAllowListAuthorizer(allowedEmails []string) *AllowListAuthorizer {
	allowed := make(map[string]bool, len(allowedEmails))
	for _, email := range allowedEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			allowed[email] = true
		}
	}
	return &AllowListAuthorizer{allowed: allowed}
}

func (a *AllowListAuthorizer) Authorize(ctx context.Context) (*AdminIdentity, error) {
	userID := middleware.GetUserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	email := strings.ToLower(middleware.GetEmail(ctx))
	if middleware.GetRole(ctx) == "admin" || a.allowed[email] {
		return &AdminIdentity{UserID: userID, Email: email}, nil
	}

	return nil, ErrForbidden
}
