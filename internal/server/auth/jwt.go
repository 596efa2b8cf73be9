// Package auth signs and verifies the static credential the archive server
// accepts: an HS256 JWT carrying a role claim.
package auth

import (
	"errors"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claim set plus the role the key was minted for.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GenerateToken mints a key for role. A zero validity mints a key that
// never expires.
func GenerateToken(role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Role: role,
	}
	if validityDuration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry of tokenString and returns
// its claims.
func ValidateToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
