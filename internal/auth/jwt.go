// Package auth provides JWT token generation and validation, plus the
// bcrypt helpers used to store and check account passwords.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — what is a JWT?
// ────────────────────────────────────────────────────────────────────
// A JSON Web Token (JWT) is a compact, self-contained way to represent
// claims between two parties. It has three Base64-encoded sections
// separated by dots:
//
//	HEADER.PAYLOAD.SIGNATURE
//
// The HEADER says which algorithm was used (HS256 here).
// The PAYLOAD carries our custom claims (user_id, role) plus standard
// ones (expiry, issued-at).
// The SIGNATURE is an HMAC-SHA256 of HEADER+PAYLOAD keyed with a secret
// only the server knows, so the server can trust the claims without a
// database lookup on every request.
//
// Useful resource: https://jwt.io/introduction
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims embedded in each token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// tokenDuration is how long a session token stays valid after being issued.
const tokenDuration = 72 * time.Hour

// issuer is stamped into every token and checked on parse.
const issuer = "skillswap"

// GenerateToken creates a signed JWT for the given user.
func GenerateToken(userID, role, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a JWT string and returns the embedded claims.
// It rejects tokens with:
//   - wrong or missing signature
//   - expired tokens (ExpiresAt in the past)
//   - a foreign issuer
//   - unexpected signing algorithm (algorithm confusion attack prevention)
func ParseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
