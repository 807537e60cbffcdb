// Package security provides JWT form token utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// FormClaims binds a rendered form instance to its page and record.
type FormClaims struct {
	PageID   string `json:"pageId"`
	RecordID string `json:"recordId,omitempty"`
	FormID   string `json:"formId"`
	FormNode int    `json:"formNode"`
	Language string `json:"lang,omitempty"`
	jwt.RegisteredClaims
}

// IssueFormToken signs claims valid for ttl.
func IssueFormToken(claims FormClaims, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty form token secret")
	}
	now := time.Now().UTC()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	claims.ID = GenerateULID()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign form token: %w", err)
	}
	return signed, nil
}

// ValidateFormToken verifies signature and expiry and returns the claims.
func ValidateFormToken(tokenString, secret string) (*FormClaims, error) {
	claims := &FormClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
