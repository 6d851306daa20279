package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"log/slog"

	"condobot/core/logger"
	"condobot/internal/domain"
	"condobot/internal/parse"
)

// ListAccounts returns all payout accounts ordered by name.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, name, kind, chat_id FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// GetAccount fetches one account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (domain.Account, error) {
	var a domain.Account
	err := s.db.GetContext(ctx, &a,
		`SELECT id, name, kind, chat_id FROM accounts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// SuggestedPayout computes the outstanding balance of the from-account
// (incoming minus outgoing payouts). The wizard shows it as a one-tap hint
// next to the amount prompt; it is never enforced.
func (s *Store) SuggestedPayout(ctx context.Context, fromID, toID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.GetContext(ctx, &balance, `
		SELECT COALESCE(SUM(CASE WHEN to_account_id = $1 THEN amount ELSE -amount END), 0)
		FROM payout_transactions
		WHERE to_account_id = $1 OR from_account_id = $1`, fromID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("suggested payout %d->%d: %w", fromID, toID, err)
	}
	if balance.IsNegative() {
		return decimal.Zero, nil
	}
	return balance, nil
}

// CreatePayout inserts a payout transaction and its audit entry atomically.
// Positivity is re-checked at commit time.
func (s *Store) CreatePayout(ctx context.Context, fromID, toID int64, amount decimal.Decimal, date time.Time, description string, actorID int64) (domain.PayoutTransaction, error) {
	if !amount.IsPositive() {
		return domain.PayoutTransaction{}, ErrNonPositiveAmount
	}

	created := domain.PayoutTransaction{
		ID:            uuid.New(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Date:          date,
		Description:   description,
	}
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &created.CreatedAt, `
			INSERT INTO payout_transactions
				(id, from_account_id, to_account_id, amount, payout_date, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			created.ID, fromID, toID, amount, date, description)
		if err != nil {
			return fmt.Errorf("insert payout: %w", err)
		}

		return recordAudit(ctx, tx, domain.AuditEntry{
			EntityType: domain.EntityPayout,
			EntityID:   created.ID.String(),
			Action:     domain.AuditCreate,
			ActorID:    actorID,
			Changes: fmt.Sprintf("from=%d to=%d amount=%s date=%s",
				fromID, toID, parse.FormatDecimal(amount), parse.FormatDate(date)),
		})
	})
	if err != nil {
		return domain.PayoutTransaction{}, err
	}

	logger.SVCPayouts.Info("payout created",
		slog.String("event", "payout.create"),
		slog.String("payout_id", created.ID.String()),
		slog.Int64("account_id", fromID),
		slog.String("amount", parse.FormatDecimal(amount)),
		slog.Int64("actor_id", actorID),
	)
	return created, nil
}
