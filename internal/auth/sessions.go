// Package auth verifies owner bearer tokens and signs the short-lived share
// tokens handed to guests on the public page.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the owner session claims. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

func (c *Claims) UserID() string {
	return c.Subject
}

type Sessions struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewSessions(secret, issuer string) *Sessions {
	return &Sessions{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a session for userID. The hosted auth provider issues real
// sessions; this is used by the CLI and tests.
func (s *Sessions) Issue(userID, email string, ttl time.Duration) (string, error) {
	const op = "auth.Sessions.Issue"

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

func (s *Sessions) Verify(token string) (*Claims, error) {
	const op = "auth.Sessions.Verify"

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrExpiredToken)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w: no subject", op, ErrInvalidToken)
	}

	return &claims, nil
}
