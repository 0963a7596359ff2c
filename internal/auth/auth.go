// Package auth protects the admin surface. The deployment holds a single
// bcrypt-hashed admin key; presenting the key yields a short-lived JWT for
// the manual-scan and debug endpoints.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/moneysignalai/breakpoint-engine/config"
)

var (
	ErrInvalidKey   = errors.New("invalid admin key")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Service issues and validates admin tokens.
type Service struct {
	secret        []byte
	adminKeyHash  []byte
	tokenDuration time.Duration
}

func NewService(cfg config.AuthConfig) *Service {
	return &Service{
		secret:        []byte(cfg.JWTSecret),
		adminKeyHash:  []byte(cfg.AdminKeyHash),
		tokenDuration: cfg.TokenDuration,
	}
}

type claims struct {
	jwt.RegisteredClaims
}

// IssueToken exchanges the admin key for a signed JWT.
func (s *Service) IssueToken(adminKey string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.adminKeyHash, []byte(adminKey)); err != nil {
		return "", ErrInvalidKey
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "breakpoint-engine",
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks a JWT's signature and expiry.
func (s *Service) ValidateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// HashAdminKey produces the bcrypt hash stored in configuration. Used by
// the hash-admin-key helper command.
func HashAdminKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin key: %w", err)
	}
	return string(hash), nil
}
