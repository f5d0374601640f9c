package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"henna_gallery/internal/domain/models"
	libjwt "henna_gallery/internal/lib/jwt"
	"henna_gallery/internal/lib/logger/sl"
	"henna_gallery/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
)

const refreshTTL = 7 * 24 * time.Hour

// Auth authenticates the single admin account. Credentials come from the
// environment (username plus bcrypt hash), not from the database; refresh
// tokens live in redis so logout can revoke them.
type Auth struct {
	log          *slog.Logger
	tokens       repository.TokenRepository
	username     string
	passwordHash string
	secret       string
	accessTTL    time.Duration
}

func New(log *slog.Logger, tokens repository.TokenRepository, username, passwordHash, secret string, accessTTL time.Duration) *Auth {
	return &Auth{
		log:          log,
		tokens:       tokens,
		username:     username,
		passwordHash: passwordHash,
		secret:       secret,
		accessTTL:    accessTTL,
	}
}

func (a *Auth) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	const op = "auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)

	log.Info("attempting to login admin")

	if username != a.username {
		log.Warn("unknown admin username")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := a.issueTokens(ctx, models.Admin{Username: username})
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin logged in successfully")

	return pair, nil
}

// RefreshTokens rotates a refresh token: the presented token must verify
// against the signing secret and still exist in redis. The old token is
// revoked before the new pair is issued.
func (a *Auth) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "auth.RefreshTokens"

	log := a.log.With(slog.String("op", op))

	username, err := a.verifyToken(refreshToken)
	if err != nil {
		log.Warn("refresh token rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	known, err := a.tokens.GetRefreshToken(ctx, username, refreshToken)
	if err != nil {
		log.Error("failed to look up refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !known {
		log.Warn("refresh token not found, possibly revoked")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if err := a.tokens.DeleteRefreshToken(ctx, username, refreshToken); err != nil {
		log.Error("failed to revoke old refresh token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.issueTokens(ctx, models.Admin{Username: username})
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens refreshed", slog.String("username", username))

	return pair, nil
}

// Logout revokes every refresh token the admin holds.
func (a *Auth) Logout(ctx context.Context, username string) error {
	const op = "auth.Logout"

	if err := a.tokens.DeleteAllUserTokens(ctx, username); err != nil {
		a.log.Error("failed to revoke tokens", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("admin logged out", slog.String("op", op), slog.String("username", username))

	return nil
}

func (a *Auth) IsAdmin(username string) bool {
	return username == a.username
}

func (a *Auth) issueTokens(ctx context.Context, admin models.Admin) (*models.TokenPair, error) {
	access, err := libjwt.NewToken(admin, a.secret, a.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := libjwt.NewToken(admin, a.secret, refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := a.tokens.SaveRefreshToken(ctx, admin.Username, refresh, refreshTTL); err != nil {
		return nil, err
	}

	return &models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (a *Auth) verifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}

	return sub, nil
}
