package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IssueVerify(t *testing.T) {
	s := NewSessions("secret", "wedgo")

	tok, err := s.Issue("user-1", "owner@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "owner@example.com", claims.Email)

	_, err = NewSessions("other", "wedgo").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSessions("secret", "someone-else").Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessions_Expired(t *testing.T) {
	s := NewSessions("secret", "")
	tok, err := s.Issue("user-1", "", time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestShareSigner(t *testing.T) {
	s := NewShareSigner("secret", time.Hour)

	tok, claims, err := s.Issue("inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", claims.InvitationID)

	got, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, claims, *got)

	_, err = NewShareSigner("other", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify(tok[:len(tok)-1] + "0")
	if tok[len(tok)-1] == '0' {
		_, err = s.Verify(tok[:len(tok)-1] + "1")
	}
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
