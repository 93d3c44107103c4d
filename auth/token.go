// Package auth validates the bearer tokens issued by the platform's
// identity service. Issuance itself happens outside this process.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"gridchat/errors"
)

// CustomClaims mirrors the claims the identity service signs into
// every access token.
type CustomClaims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) Verifier {
	return Verifier{secret: secret}
}

// Validate parses and checks signature and expiry, returning the bound
// user id. The ctx parameter exists for remote validator
// implementations; the local parse is immediate.
func (v Verifier) Validate(_ context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.ErrUnauthenticated
	}
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(_ *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", errors.ErrUnauthenticated
	}
	return claims.UserID, nil
}
