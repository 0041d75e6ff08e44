package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token fails signature or structural checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the registered JWT claims plus the tenant the session
// belongs to. BusinessID is the only custom claim; every authenticated
// request is scoped to it.
type Claims struct {
	jwt.RegisteredClaims
	BusinessID string `json:"businessId"`
}

// GenerateToken issues an HS256-signed session token for the given tenant.
func GenerateToken(businessID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		BusinessID: businessID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetBusinessIDFromToken verifies the token signature and expiry and
// returns the tenant it was issued for.
func GetBusinessIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", err
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	return claims.BusinessID, nil
}
