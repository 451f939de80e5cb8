package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
)

// ErrInvalidCredentials indicates the email/password pair did not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken indicates an account already exists for the email.
var ErrEmailTaken = errors.New("email already registered")

// ErrUserNotFound indicates the account could not be found.
var ErrUserNotFound = errors.New("user not found")

const revokedTokenKeyPrefix = "auth:revoked:"

// TokenConfig groups the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService owns account lifecycle and session tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (dto.TokenResponse, error)
	CurrentUser(ctx context.Context, userID uint) (dto.UserResponse, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

type authService struct {
	users     repository.UserRepository
	cache     *redis.Client
	tokens    TokenConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users repository.UserRepository, cache *redis.Client, tokens TokenConfig, validate *validator.Validate, logger zerolog.Logger) AuthService {
	return &authService{
		users:     users,
		cache:     cache,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return dto.TokenResponse{}, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TokenResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(payload.FullName),
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return dto.TokenResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account registered")

	return s.issueTokens(user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.TokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (dto.TokenResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.tokens.RefreshSecret), nil
	})
	if err != nil || !token.Valid {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "refresh" {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	subject, ok := claims["sub"].(float64)
	if !ok || subject <= 0 {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, uint(subject))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenResponse{}, ErrInvalidCredentials
		}
		return dto.TokenResponse{}, err
	}

	access, expiresIn, err := s.signToken(user, "access", s.tokens.AccessSecret, s.tokens.AccessTTL)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		AccessToken: access,
		ExpiresIn:   expiresIn,
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *authService) CurrentUser(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// Logout places the token id in the denylist until the token would expire on
// its own.
func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.cache == nil || tokenID == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	return s.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}

func (s *authService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.cache == nil || tokenID == "" {
		return false, nil
	}

	_, err := s.cache.Get(ctx, revokedTokenKeyPrefix+tokenID).Result()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	return false, err
}

func (s *authService) issueTokens(user models.User) (dto.TokenResponse, error) {
	access, expiresIn, err := s.signToken(user, "access", s.tokens.AccessSecret, s.tokens.AccessTTL)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	refresh, _, err := s.signToken(user, "refresh", s.tokens.RefreshSecret, s.tokens.RefreshTTL)
	if err != nil {
		return dto.TokenResponse{}, err
	}

	return dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
		User:         dto.NewUserResponse(user),
	}, nil
}

func (s *authService) signToken(user models.User, kind, secret string, ttl time.Duration) (string, int64, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"typ":   kind,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", 0, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, int64(ttl.Seconds()), nil
}
