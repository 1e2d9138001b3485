package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reelforge/reelforge-api/internal/pkg/password"
)

var (
	// ErrWrongPassword is returned when the current password check fails
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrNoPassword is returned for OAuth-only accounts
	ErrNoPassword = errors.New("account has no password set")
)

// Service provides account profile operations
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, nickname string) (*User, error)
	SetAvatar(ctx context.Context, id uuid.UUID, url string) error
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, nickname string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nickname = strings.TrimSpace(nickname)
	if nickname != "" {
		u.Nickname = nickname
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *service) SetAvatar(ctx context.Context, id uuid.UUID, url string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	u.AvatarURL = sql.NullString{String: url, Valid: url != ""}
	return s.repo.Update(ctx, u)
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !u.HasPassword() {
		return ErrNoPassword
	}
	if !password.Verify(current, u.PasswordHash.String) {
		return ErrWrongPassword
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}

	u.PasswordHash = sql.NullString{String: hash, Valid: true}
	return s.repo.Update(ctx, u)
}
