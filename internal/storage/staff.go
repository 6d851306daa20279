package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"condobot/core/logger"
	"condobot/internal/domain"
)

// ResolveAdmin returns the operator if they exist with the admin role.
func (s *Store) ResolveAdmin(ctx context.Context, telegramID int64) (domain.Staff, error) {
	st, err := s.resolveStaff(ctx, telegramID)
	if err != nil {
		return domain.Staff{}, err
	}
	if !st.IsAdmin() {
		return domain.Staff{}, ErrNotFound
	}
	return st, nil
}

// ResolveAdminOrStaff returns the operator regardless of role.
func (s *Store) ResolveAdminOrStaff(ctx context.Context, telegramID int64) (domain.Staff, error) {
	return s.resolveStaff(ctx, telegramID)
}

func (s *Store) resolveStaff(ctx context.Context, telegramID int64) (domain.Staff, error) {
	var st domain.Staff
	err := s.db.GetContext(ctx, &st,
		`SELECT telegram_id, name, role FROM staff WHERE telegram_id = $1`, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Staff{}, ErrNotFound
	}
	if err != nil {
		return domain.Staff{}, fmt.Errorf("resolve staff %d: %w", telegramID, err)
	}
	return st, nil
}

// SeedStaff upserts the operators declared in configuration. Run once at
// bootstrap via the seeder hook.
func (s *Store) SeedStaff(ctx context.Context, staff []domain.Staff) error {
	if len(staff) == 0 {
		return nil
	}
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, st := range staff {
			if st.TelegramID == 0 || st.Role == "" {
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO staff (telegram_id, name, role)
				VALUES ($1, $2, $3)
				ON CONFLICT (telegram_id) DO UPDATE SET name = $2, role = $3`,
				st.TelegramID, st.Name, st.Role)
			if err != nil {
				return fmt.Errorf("seed staff %d: %w", st.TelegramID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.SEED.Info("staff seeded",
		slog.String("event", "seed.staff"),
		slog.Int("count", len(staff)),
	)
	return nil
}
