package utils

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tempora_back_end/internal/models"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super_secret"
	}
	return []byte(secret)
}

// GenerateJWT émet le jeton d'accès d'un opérateur pour l'API REST.
func GenerateJWT(operator *models.AppUser) (string, error) {
	claims := jwt.MapClaims{
		"user_id": operator.ID,
		"role":    "operator",
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}
