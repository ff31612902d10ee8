package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/wedgo/internal/repository"
	"github.com/kirinyoku/wedgo/internal/schema"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const maxTxAttempts = 3

type Store struct {
	pool   *pgxpool.Pool
	table  string
	schema *schema.Validator
	txOpts pgx.TxOptions
}

// NewStore returns a store over the invitations table of env.
func NewStore(pool *pgxpool.Pool, env string, v *schema.Validator) (*Store, error) {
	table, err := TableName(env)
	if err != nil {
		return nil, err
	}

	return &Store{
		pool:   pool,
		table:  table,
		schema: v,
		// Create checks the draft count and name before inserting. Read
		// committed leaves a window where two concurrent creates both pass.
		txOpts: pgx.TxOptions{
			IsoLevel:   pgx.ReadCommitted,
			AccessMode: pgx.ReadWrite,
		},
	}, nil
}

func (s *Store) Invitations() repository.Invitations {
	return s.invitations()
}

func (s *Store) invitations() *InvitationRepo {
	return &InvitationRepo{pool: s.pool, table: s.table, schema: s.schema}
}

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Invitations) error,
) error {
	return s.RunTxWithOpts(ctx, nil, fn)
}

// RunTxWithOpts runs fn in one transaction. A serialization failure or
// deadlock restarts fn, up to maxTxAttempts times in total.
func (s *Store) RunTxWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx repository.Invitations) error,
) error {
	txOpts := s.txOpts
	if opts != nil {
		txOpts = *opts
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, txOpts, fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *Store) runTx(
	ctx context.Context,
	txOpts pgx.TxOptions,
	fn func(ctx context.Context, tx repository.Invitations) error,
) error {
	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.invitations().With(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
