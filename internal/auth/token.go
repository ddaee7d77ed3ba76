package auth

import (
	"errors"
	"time"

	"github.com/anonto42/tinyfeed/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL is the validity window of a session token. There is no server-side
// revocation: a token stays valid until it expires.
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// TokenCodec issues and verifies signed session tokens carrying a user id.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec creates a TokenCodec signing with the given secret
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret)}
}

// Issue signs a token embedding the user id, valid for TokenTTL
func (tc *TokenCodec) Issue(userID string) (string, error) {
	claims := &models.SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tc.secret)
}

// Verify checks signature and expiry and returns the embedded user id
func (tc *TokenCodec) Verify(tokenString string) (string, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tc.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
