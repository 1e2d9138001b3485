package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/email"
	"github.com/reelforge/reelforge-api/internal/pkg/jwt"
	"github.com/reelforge/reelforge-api/internal/pkg/oauth"
	"github.com/reelforge/reelforge-api/internal/pkg/password"
	"github.com/reelforge/reelforge-api/internal/pkg/sms"
)

const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	jwtService *jwt.Service
	redis      *redis.Client
	codes      *CodeStore
	mail       *email.Service
	sms        *sms.Client
	google     *oauth.GoogleClient
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, rdb *redis.Client,
	mail *email.Service, smsClient *sms.Client, google *oauth.GoogleClient) *Service {
	return &Service{
		userRepo:   userRepo,
		jwtService: jwtService,
		redis:      rdb,
		codes:      NewCodeStore(rdb),
		mail:       mail,
		sms:        smsClient,
		google:     google,
	}
}

// SendCode issues and delivers a verification code. Delivery is
// best-effort: a provider failure is logged, the code stays valid.
func (s *Service) SendCode(ctx context.Context, channel, destination string) error {
	destination = normalizeDestination(channel, destination)

	code, err := s.codes.Issue(ctx, channel, destination)
	if err != nil {
		return err
	}

	switch channel {
	case ChannelEmail:
		s.mail.Queue(destination, "", "verification", "Your ReelForge verification code",
			map[string]interface{}{"UserName": "there", "Code": code})
	case ChannelPhone:
		if err := s.sms.SendCode(ctx, destination, code); err != nil {
			log.Error().Err(err).Str("phone", destination).Msg("Failed to send SMS code")
		}
	default:
		return ErrInvalidChannel
	}

	return nil
}

// Register creates a new account after code verification. Password is
// optional; accounts without one log in with codes or OAuth.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	destination := normalizeDestination(req.Channel, req.Destination)

	if err := s.codes.Verify(ctx, req.Channel, destination, req.Code); err != nil {
		return nil, err
	}

	u := &user.User{
		ID:       uuid.New(),
		Role:     user.RoleUser,
		Nickname: req.Nickname,
	}
	switch req.Channel {
	case ChannelEmail:
		u.Email = sql.NullString{String: destination, Valid: true}
		u.EmailVerified = true
	case ChannelPhone:
		u.Phone = sql.NullString{String: destination, Valid: true}
		u.PhoneVerified = true
	default:
		return nil, ErrInvalidChannel
	}
	if u.Nickname == "" {
		u.Nickname = defaultNickname(destination)
	}
	if req.Password != "" {
		hash, err := password.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = sql.NullString{String: hash, Valid: true}
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	if req.Channel == ChannelEmail {
		s.mail.Queue(destination, u.Nickname, "welcome", "Welcome to ReelForge",
			map[string]interface{}{"UserName": u.Nickname})
	}

	return s.generateTokens(ctx, u)
}

// LoginPassword authenticates with an email or phone identifier and password
func (s *Service) LoginPassword(ctx context.Context, req *PasswordLoginRequest) (*AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)

	var u *user.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.userRepo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		u, err = s.userRepo.GetByPhone(ctx, identifier)
	}
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}

	if !u.HasPassword() || !password.Verify(req.Password, u.PasswordHash.String) {
		return nil, ErrInvalidCredentials
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return s.generateTokens(ctx, u)
}

// LoginCode authenticates with a verification code, creating the
// account on first login.
func (s *Service) LoginCode(ctx context.Context, req *CodeLoginRequest) (*AuthResponse, error) {
	destination := normalizeDestination(req.Channel, req.Destination)

	if err := s.codes.Verify(ctx, req.Channel, destination, req.Code); err != nil {
		return nil, err
	}

	var u *user.User
	var err error
	switch req.Channel {
	case ChannelEmail:
		u, err = s.userRepo.GetByEmail(ctx, destination)
	case ChannelPhone:
		u, err = s.userRepo.GetByPhone(ctx, destination)
	default:
		return nil, ErrInvalidChannel
	}

	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		u = &user.User{
			ID:       uuid.New(),
			Role:     user.RoleUser,
			Nickname: defaultNickname(destination),
		}
		if req.Channel == ChannelEmail {
			u.Email = sql.NullString{String: destination, Valid: true}
			u.EmailVerified = true
		} else {
			u.Phone = sql.NullString{String: destination, Valid: true}
			u.PhoneVerified = true
		}
		if err := s.userRepo.Create(ctx, u); err != nil {
			return nil, err
		}
	}

	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return s.generateTokens(ctx, u)
}

// LoginGoogle exchanges an OAuth code and signs the user in, creating
// or linking the account by verified email.
func (s *Service) LoginGoogle(ctx context.Context, code string) (*AuthResponse, error) {
	accessToken, err := s.google.Exchange(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("Google OAuth exchange failed")
		return nil, ErrOAuthExchange
	}

	profile, err := s.google.FetchUser(ctx, accessToken)
	if err != nil {
		log.Error().Err(err).Msg("Google userinfo fetch failed")
		return nil, ErrOAuthExchange
	}

	u, err := s.userRepo.GetByGoogleID(ctx, profile.ID)
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	if u == nil || errors.Is(err, user.ErrNotFound) {
		// Link by verified email if the account already exists
		u, err = s.userRepo.GetByEmail(ctx, strings.ToLower(profile.Email))
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			return nil, err
		}
		if u != nil && err == nil {
			u.GoogleID = sql.NullString{String: profile.ID, Valid: true}
			if profile.VerifiedEmail {
				u.EmailVerified = true
			}
			if err := s.userRepo.Update(ctx, u); err != nil {
				return nil, err
			}
		} else {
			nickname := profile.Name
			if nickname == "" {
				nickname = defaultNickname(profile.Email)
			}
			u = &user.User{
				ID:            uuid.New(),
				Email:         sql.NullString{String: strings.ToLower(profile.Email), Valid: true},
				Nickname:      nickname,
				Role:          user.RoleUser,
				GoogleID:      sql.NullString{String: profile.ID, Valid: true},
				EmailVerified: profile.VerifiedEmail,
			}
			if profile.Picture != "" {
				u.AvatarURL = sql.NullString{String: profile.Picture, Valid: true}
			}
			if err := s.userRepo.Create(ctx, u); err != nil {
				return nil, err
			}
			s.mail.Queue(profile.Email, u.Nickname, "welcome", "Welcome to ReelForge",
				map[string]interface{}{"UserName": u.Nickname})
		}
	}

	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return s.generateTokens(ctx, u)
}

// Refresh rotates the refresh token and issues fresh tokens
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.getRefreshToken(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	// Rotation: the presented token is dead either way
	_ = s.deleteRefreshToken(ctx, refreshHash)

	return s.generateTokens(ctx, u)
}

// Logout invalidates the refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// RecordLogin stores the login timestamp and source IP
func (s *Service) RecordLogin(ctx context.Context, userID uuid.UUID, ip string) {
	if err := s.userRepo.UpdateLastLogin(ctx, userID, ip); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to record login")
	}
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, u.Email.String, string(u.Role), u.IsBanned)
	if err != nil {
		return nil, err
	}

	refreshToken, _, _, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	if err := s.storeRefreshToken(ctx, refreshHash, u.ID); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
		},
	}, nil
}

func (s *Service) storeRefreshToken(ctx context.Context, tokenHash string, userID uuid.UUID) error {
	return s.redis.Set(ctx, "refresh:"+tokenHash, userID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.redis.Get(ctx, "refresh:"+tokenHash).Result()
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return uuid.Parse(val)
}

func (s *Service) deleteRefreshToken(ctx context.Context, tokenHash string) error {
	return s.redis.Del(ctx, "refresh:"+tokenHash).Err()
}

func normalizeDestination(channel, destination string) string {
	destination = strings.TrimSpace(destination)
	if channel == ChannelEmail {
		return strings.ToLower(destination)
	}
	return destination
}

func defaultNickname(destination string) string {
	if at := strings.Index(destination, "@"); at > 0 {
		return destination[:at]
	}
	if len(destination) > 4 {
		return "user" + destination[len(destination)-4:]
	}
	return "user"
}
