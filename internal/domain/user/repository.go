package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	Update(ctx context.Context, u *User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]User, int, error)
}

// UserRepository provides account persistence
type UserRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, email, phone, password_hash, nickname, avatar_url, role, google_id,
	email_verified, phone_verified, is_banned, last_login_at, last_login_ip,
	created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *User) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO users (
			id, email, phone, password_hash, nickname, avatar_url, role, google_id,
			email_verified, phone_verified, is_banned
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.Nickname, u.AvatarURL, u.Role,
		u.GoogleID, u.EmailVerified, u.PhoneVerified, u.IsBanned)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "phone") {
				return ErrPhoneTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: insert user", ErrInternal)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getBy(ctx, "phone = $1", phone)
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*User, error) {
	return r.getBy(ctx, "google_id = $1", googleID)
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg interface{}) (*User, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var u User
	err := r.db.GetContext(ctx2, &u, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user", ErrInternal)
	}

	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *User) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE users
		SET email = $2, phone = $3, password_hash = $4, nickname = $5,
			avatar_url = $6, google_id = $7, email_verified = $8,
			phone_verified = $9, updated_at = NOW()
		WHERE id = $1
	`, u.ID, u.Email, u.Phone, u.PasswordHash, u.Nickname, u.AvatarURL,
		u.GoogleID, u.EmailVerified, u.PhoneVerified)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "phone") {
				return ErrPhoneTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("%w: update user", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, ip string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		UPDATE users SET last_login_at = NOW(), last_login_ip = $2 WHERE id = $1
	`, id, ip)
	if err != nil {
		return fmt.Errorf("%w: update last login", ErrInternal)
	}

	return nil
}

func (r *UserRepository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE users SET is_banned = $2, updated_at = NOW() WHERE id = $1
	`, id, banned)
	if err != nil {
		return fmt.Errorf("%w: set banned", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete user", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]User, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	where := ""
	args := []interface{}{limit, offset}
	if search != "" {
		where = ` WHERE email ILIKE $3 OR phone ILIKE $3 OR nickname ILIKE $3`
		args = append(args, "%"+search+"%")
	}

	users := make([]User, 0)
	err := r.db.SelectContext(ctx2, &users, `
		SELECT `+userColumns+` FROM users`+where+`
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list users", ErrInternal)
	}

	var total int
	countArgs := args[2:]
	countWhere := strings.Replace(where, "$3", "$1", -1)
	err = r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM users`+countWhere, countArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count users", ErrInternal)
	}

	return users, total, nil
}
