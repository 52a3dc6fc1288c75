package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// WebhookClaims are the claims carried by a signed webhook delivery.
// The notify package signs outgoing deliveries with the same shape;
// receivers use this package to verify them.
type WebhookClaims struct {
	// Event is the event type (e.g., "run_failed").
	Event string `json:"event"`

	// RunID identifies the run the event belongs to.
	RunID string `json:"run"`

	jwt.RegisteredClaims
}

// VerifyWebhookToken parses and validates a webhook bearer token.
// If issuer is non-empty the token's iss claim must match.
func VerifyWebhookToken(secret []byte, issuer, tokenString string) (*WebhookClaims, error) {
	claims := &WebhookClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if issuer != "" && claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyWebhookHeader verifies the Authorization header of an incoming
// webhook request ("Bearer <token>").
func VerifyWebhookHeader(secret []byte, issuer, authorization string) (*WebhookClaims, error) {
	tokenString, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return nil, ErrInvalidToken
	}
	return VerifyWebhookToken(secret, issuer, tokenString)
}
