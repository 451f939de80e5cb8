package service

import (
	"context"
	"io"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/effortlens/effortlens-api/internal/dto"
	"github.com/effortlens/effortlens-api/internal/models"
	"github.com/effortlens/effortlens-api/internal/repository"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func newAuthService(t *testing.T) (AuthService, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	db := setupServiceTestDB(t, &models.User{})
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})

	tokens := TokenConfig{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}

	svc := NewAuthService(repository.NewUserRepository(db), cache, tokens, validator.New(validator.WithRequiredStructEnabled()), zerolog.New(io.Discard))
	return svc, server
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    " Casey@Example.com ",
		Password: "correct horse",
		FullName: "Casey Doe",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.AccessToken)
	require.NotEmpty(t, registered.RefreshToken)
	require.Equal(t, int64(900), registered.ExpiresIn)
	require.Equal(t, "casey@example.com", registered.User.Email)
	require.Equal(t, "Casey Doe", registered.User.FullName)

	claims := parseClaims(t, registered.AccessToken, testAccessSecret)
	require.Equal(t, "access", claims["typ"])
	require.Equal(t, "casey@example.com", claims["email"])
	require.NotEmpty(t, claims["jti"])

	signedIn, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "casey@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, registered.User.ID, signedIn.User.ID)
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	payload := dto.RegisterRequest{Email: "dup@example.com", Password: "password-1"}
	_, err := svc.Register(context.Background(), payload)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "short@example.com",
		Password: "tiny",
	})

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "login@example.com",
		Password: "password-1",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "login@example.com",
		Password: "password-2",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password-1",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthRefreshIssuesNewAccessToken(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "refresh@example.com",
		Password: "password-1",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), registered.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Empty(t, refreshed.RefreshToken)
	require.Equal(t, registered.User.ID, refreshed.User.ID)

	claims := parseClaims(t, refreshed.AccessToken, testAccessSecret)
	require.Equal(t, "access", claims["typ"])
}

func TestAuthRefreshRejectsAccessToken(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "mixed@example.com",
		Password: "password-1",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), registered.AccessToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLogoutRevokesTokenUntilExpiry(t *testing.T) {
	svc, server := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, "jti-1", time.Now().Add(10*time.Minute)))

	revoked, err := svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = svc.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	require.False(t, revoked)

	// A token that already expired needs no denylist entry.
	require.NoError(t, svc.Logout(ctx, "jti-3", time.Now().Add(-time.Minute)))
	revoked, err = svc.IsTokenRevoked(ctx, "jti-3")
	require.NoError(t, err)
	require.False(t, revoked)

	server.FastForward(11 * time.Minute)
	revoked, err = svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestAuthCurrentUserNotFound(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.CurrentUser(context.Background(), 987654)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func parseClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}
