// Package auth issues and parses the HS256 session tokens handed to
// clients after login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "shopauth"

// Claims carries the standard claims plus the account ID and role.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string      `json:"account_id"`
	Role      models.Role `json:"role"`
}

// GenerateToken signs a token for the account valid for validityDuration.
// It returns the token and its expiry time.
func GenerateToken(accountID string, role models.Role, secretKey []byte, validityDuration time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(validityDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: accountID,
		Role:      role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// ParseToken validates tokenString and returns its claims. Expired tokens
// yield common.ErrTokenExpired, any other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.AccountID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
