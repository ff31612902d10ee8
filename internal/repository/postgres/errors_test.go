package postgresrepo

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/wedgo/internal/repository"
)

func TestWrapDBErr(t *testing.T) {
	assert.Nil(t, wrapDBErr("op", nil))
	assert.ErrorIs(t, wrapDBErr("op", pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, wrapDBErr("op", &pgconn.PgError{Code: "23505"}), repository.ErrConflict)
	assert.ErrorIs(t, wrapDBErr("op", &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}), repository.ErrNotFound)

	other := errors.New("boom")
	err := wrapDBErr("postgresrepo.InvitationRepo.Get", other)
	assert.ErrorIs(t, err, other)
	assert.Equal(t, "postgresrepo.InvitationRepo.Get: boom", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestTableName(t *testing.T) {
	name, err := TableName("staging")
	assert.NoError(t, err)
	assert.Equal(t, "invitations_staging", name)

	_, err = TableName("prod")
	assert.Error(t, err)
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := migrations.ReadFile("migrations/0001_invitations.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(b), "{{table}}")
}
