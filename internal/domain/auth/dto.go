package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain/user"
)

type SendCodeRequest struct {
	Channel     string `json:"channel" validate:"required,oneof=email phone"`
	Destination string `json:"destination" validate:"required"`
}

type RegisterRequest struct {
	Channel     string `json:"channel" validate:"required,oneof=email phone"`
	Destination string `json:"destination" validate:"required"`
	Code        string `json:"code" validate:"required,len=6"`
	Password    string `json:"password" validate:"omitempty,min=8,max=72"`
	Nickname    string `json:"nickname" validate:"omitempty,min=2,max=50"`
}

type PasswordLoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type CodeLoginRequest struct {
	Channel     string `json:"channel" validate:"required,oneof=email phone"`
	Destination string `json:"destination" validate:"required"`
	Code        string `json:"code" validate:"required,len=6"`
}

type GoogleLoginRequest struct {
	Code string `json:"code" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Nickname      string    `json:"nickname"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// NewUserResponse maps a user entity into the auth payload
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email.String,
		Phone:         u.Phone.String,
		Nickname:      u.Nickname,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}
