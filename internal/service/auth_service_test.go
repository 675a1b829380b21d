package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/salesdash_go_server/config"
	"github.com/qs3c/salesdash_go_server/internal/pkg/jwt"
	"github.com/qs3c/salesdash_go_server/internal/pkg/oauth"
)

func testAuthConfig(t *testing.T) *config.Config {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 24},
		Dashboard: config.DashboardConfig{
			Admins: []config.AdminUser{
				{Username: "admin", PasswordHash: string(hash)},
			},
		},
		OAuth: config.OAuthConfig{
			Google: config.GoogleOAuthConfig{
				AllowedEmails: []string{"boss@example.com"},
			},
		},
	}
}

func TestAuthService_Login(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), nil, nil)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login("admin", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "admin", resp.Username)

		claims, err := jwt.ParseToken(resp.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login("ghost", "secret123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_GoogleNotConfigured(t *testing.T) {
	svc := NewAuthService(testAuthConfig(t), nil, nil)

	_, err := svc.GoogleAuthURL(context.Background(), "http://localhost:3000")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, _, err = svc.GoogleCallback(context.Background(), "state", "code")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
}

func TestAuthService_GoogleAuthURL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	google := oauth.NewGoogleOAuth("client-id", "secret", "http://localhost/callback")
	svc := NewAuthService(testAuthConfig(t), google, oauth.NewStateStore(client))

	url, err := svc.GoogleAuthURL(context.Background(), "http://localhost:3000/dash")
	require.NoError(t, err)
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "state=")
}

func TestAuthService_GoogleCallback_InvalidState(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	google := oauth.NewGoogleOAuth("client-id", "secret", "http://localhost/callback")
	svc := NewAuthService(testAuthConfig(t), google, oauth.NewStateStore(client))

	_, _, err := svc.GoogleCallback(context.Background(), "forged-state", "code")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}
