package jwt

import (
	"time"

	"henna_gallery/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// NewToken mints a signed HS256 token for the admin identity.
func NewToken(admin models.Admin, secret string, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = admin.Username
	claims["role"] = "admin"
	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(duration).Unix()

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
