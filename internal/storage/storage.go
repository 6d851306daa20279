// Package storage persists the domain entities in Postgres. Mutations and
// their audit entries are written in one transaction; monotonicity and
// positivity invariants are re-checked here at commit time because the
// data may have moved since the wizard captured its baseline.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"condobot/internal/parse"
)

var (
	// ErrNotFound reports a missing or vanished entity.
	ErrNotFound = errors.New("storage: not found")
	// ErrNonPositiveAmount reports a payout amount <= 0 at commit time.
	ErrNonPositiveAmount = errors.New("storage: amount must be positive")
)

// MonotonicityError reports a meter value below the reading it must not
// undercut. Both values are carried so the user message can name them.
type MonotonicityError struct {
	Value    decimal.Decimal
	Baseline decimal.Decimal
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("storage: reading %s below baseline %s",
		parse.FormatDecimal(e.Value), parse.FormatDecimal(e.Baseline))
}

// Store wraps the database handle with domain queries.
type Store struct {
	db *sqlx.DB
}

// New creates a Store around an open sqlx handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
