package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the access-token claims issued by the auth service.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Parser inspects access tokens issued by the auth service. The client
// never signs tokens; it only reads the subject and expiry out of them.
type Parser struct {
	secretKey string
}

// NewParser creates a token parser verifying with the service's HMAC secret.
func NewParser(secretKey string) *Parser {
	return &Parser{secretKey: secretKey}
}

// Inspect validates the token signature and returns the subject user id,
// email claim and expiry.
func (p *Parser) Inspect(tokenString string) (uuid.UUID, string, time.Time, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(p.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("access token is invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", time.Time{}, fmt.Errorf("failed to parse token subject: %w", err)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return userID, claims.Email, expiresAt, nil
}

// Expired reports whether the token's expiry has passed, with a small skew
// margin so a token about to lapse is refreshed early.
func (p *Parser) Expired(tokenString string, skew time.Duration) bool {
	_, _, expiresAt, err := p.Inspect(tokenString)
	if err != nil {
		return true
	}
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(skew).After(expiresAt)
}
