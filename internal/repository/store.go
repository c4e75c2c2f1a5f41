// Package repository is the record store adapter: hand-written pgx queries
// over Postgres, the integer status codec at the persistence boundary, and an
// optional redis cache for reference data.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"registro/attendance/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, databaseURL)
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// storeErr folds adapter failures into the ErrStoreUnavailable taxonomy so
// callers never see transport-level error types.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", model.ErrStoreUnavailable, op, err)
}
