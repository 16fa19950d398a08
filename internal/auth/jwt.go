package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lalith-99/supportchat/internal/models"
)

// Claims is the payload inside every JWT token.
//
// When a participant logs in, we issue a token containing these fields.
// On every subsequent request the middleware reads the token back and
// extracts the claims: that is how the server knows WHO is calling and
// with WHICH role, without hitting the database each time.
//
// Embedding jwt.RegisteredClaims gives us the standard ExpiresAt/IssuedAt/
// Issuer fields; Username and Role ride on top.
type Claims struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for a participant.
//
// HS256: one shared secret, symmetric, fine for a single-service backend.
// If a separate service ever needed to verify without being able to issue,
// we would move to RS256.
func GenerateToken(username string, role models.Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "supportchat",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a token string and extracts the claims. It verifies
// the signature, the expiry, and that the signing method is HMAC. A token
// signed with "none" or RSA is rejected before signature verification
// (the classic algorithm-confusion attack).
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
