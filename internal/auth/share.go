package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ShareClaims scope a share token to one invitation.
type ShareClaims struct {
	InvitationID string `json:"iid"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// ShareSigner issues HMAC-signed share tokens. The public page sets the
// token as a cookie and also returns it in the body, and guest requests must
// present both copies.
type ShareSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewShareSigner(secret string, ttl time.Duration) *ShareSigner {
	return &ShareSigner{
		key: []byte("wedgo-share:" + secret),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *ShareSigner) TTL() time.Duration {
	return s.ttl
}

func (s *ShareSigner) Issue(invitationID string) (string, ShareClaims, error) {
	const op = "auth.ShareSigner.Issue"

	now := s.now().Unix()
	claims := ShareClaims{
		InvitationID: invitationID,
		IssuedAt:     now,
		ExpiresAt:    now + int64(s.ttl/time.Second),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", ShareClaims{}, fmt.Errorf("%s: %w", op, err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), claims, nil
}

func (s *ShareSigner) Verify(token string) (*ShareClaims, error) {
	const op = "auth.ShareSigner.Verify"

	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return nil, fmt.Errorf("%s: %w: format", op, ErrInvalidToken)
	}

	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return nil, fmt.Errorf("%s: %w: signature", op, ErrInvalidToken)
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: encoding", op, ErrInvalidToken)
	}

	var claims ShareClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%s: %w: payload", op, ErrInvalidToken)
	}

	if s.now().Unix() > claims.ExpiresAt {
		return nil, fmt.Errorf("%s: %w", op, ErrExpiredToken)
	}

	return &claims, nil
}

func (s *ShareSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
