// Package auth issues and verifies the HS256 session tokens handed out by
// login.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType is the value of the typ claim on every session token.
const TokenType = "bearer"

// Claims holds the registered claims plus the token type and, when known,
// the account email. Subject is the decimal account id.
type Claims struct {
	jwt.RegisteredClaims
	Type  string `json:"typ"`
	Email string `json:"email,omitempty"`
}

// AccountID parses the subject claim.
func (c *Claims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// GenerateToken signs a session token for accountID valid for ttl from now.
func GenerateToken(accountID int64, email string, secretKey []byte, ttl time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type:  TokenType,
		Email: email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature, algorithm and expiry. Expired tokens yield
// common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Type != TokenType {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
