package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) SaveRefreshToken(ctx context.Context, username, token string, exp time.Duration) error {
	args := m.Called(ctx, username, token, exp)
	return args.Error(0)
}

func (m *MockTokenRepository) GetRefreshToken(ctx context.Context, username, token string) (bool, error) {
	args := m.Called(ctx, username, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenRepository) DeleteRefreshToken(ctx context.Context, username, token string) error {
	args := m.Called(ctx, username, token)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteAllUserTokens(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func newTestAuth(t *testing.T, tokens *MockTokenRepository) *Auth {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	return New(slog.Default(), tokens, "admin", string(hash), testSecret, 15*time.Minute)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		tokens := new(MockTokenRepository)
		tokens.On("SaveRefreshToken", ctx, "admin", mock.AnythingOfType("string"), refreshTTL).Return(nil)

		a := newTestAuth(t, tokens)

		pair, err := a.Login(ctx, "admin", "correct-password")
		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		// the access token must verify against the signing secret
		parsed, err := jwt.Parse(pair.AccessToken, func(tok *jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, "admin", claims["sub"])
		assert.Equal(t, "admin", claims["role"])
	})

	t.Run("wrong username", func(t *testing.T) {
		a := newTestAuth(t, new(MockTokenRepository))

		_, err := a.Login(ctx, "root", "correct-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		a := newTestAuth(t, new(MockTokenRepository))

		_, err := a.Login(ctx, "admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuth_RefreshTokens(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates a known token", func(t *testing.T) {
		tokens := new(MockTokenRepository)
		tokens.On("SaveRefreshToken", ctx, "admin", mock.AnythingOfType("string"), refreshTTL).Return(nil)

		a := newTestAuth(t, tokens)

		pair, err := a.Login(ctx, "admin", "correct-password")
		require.NoError(t, err)

		tokens.On("GetRefreshToken", ctx, "admin", pair.RefreshToken).Return(true, nil)
		tokens.On("DeleteRefreshToken", ctx, "admin", pair.RefreshToken).Return(nil)

		fresh, err := a.RefreshTokens(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, fresh.AccessToken)
		tokens.AssertCalled(t, "DeleteRefreshToken", ctx, "admin", pair.RefreshToken)
	})

	t.Run("rejects a revoked token", func(t *testing.T) {
		tokens := new(MockTokenRepository)
		tokens.On("SaveRefreshToken", ctx, "admin", mock.AnythingOfType("string"), refreshTTL).Return(nil)

		a := newTestAuth(t, tokens)

		pair, err := a.Login(ctx, "admin", "correct-password")
		require.NoError(t, err)

		tokens.On("GetRefreshToken", ctx, "admin", pair.RefreshToken).Return(false, nil)

		_, err = a.RefreshTokens(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		a := newTestAuth(t, new(MockTokenRepository))

		_, err := a.RefreshTokens(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		a := newTestAuth(t, new(MockTokenRepository))

		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "admin",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		forgedString, err := forged.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = a.RefreshTokens(ctx, forgedString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuth_Logout(t *testing.T) {
	ctx := context.Background()

	tokens := new(MockTokenRepository)
	tokens.On("DeleteAllUserTokens", ctx, "admin").Return(nil)

	a := newTestAuth(t, tokens)

	require.NoError(t, a.Logout(ctx, "admin"))
	tokens.AssertExpectations(t)
}

func TestAuth_IsAdmin(t *testing.T) {
	a := newTestAuth(t, new(MockTokenRepository))

	assert.True(t, a.IsAdmin("admin"))
	assert.False(t, a.IsAdmin("root"))
}
