package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"condobot/core/logger"
	"condobot/internal/domain"
)

// recordAudit writes one audit entry inside the caller's transaction so the
// mutation and its trail commit or roll back together.
func recordAudit(ctx context.Context, tx *sqlx.Tx, e domain.AuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (id, entity_type, entity_id, action, actor_id, changes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.EntityType, e.EntityID, e.Action, e.ActorID, e.Changes)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	logger.SVCAudit.Info("audit entry written",
		slog.String("event", "audit.write"),
		slog.String("entity_type", e.EntityType),
		slog.String("entity_id", e.EntityID),
		slog.String("action", string(e.Action)),
		slog.Int64("actor_id", e.ActorID),
	)
	return nil
}

// ListAudit returns a page of audit entries, most recent first.
func (s *Store) ListAudit(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []domain.AuditEntry
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, entity_type, entity_id, action, actor_id, changes, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	logger.SVCAudit.Debug("audit entries listed",
		slog.String("event", "audit.list"),
		slog.Int("limit", limit),
		slog.Int("offset", offset),
		slog.Int("returned", len(out)),
	)
	return out, nil
}
