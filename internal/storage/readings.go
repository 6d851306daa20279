package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"log/slog"

	"condobot/core/logger"
	"condobot/internal/domain"
	"condobot/internal/parse"
)

// ListProperties returns properties that already have at least one reading,
// ordered by name. These form the primary selection list.
func (s *Store) ListProperties(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	err := s.db.SelectContext(ctx, &out, `
		SELECT DISTINCT p.id, p.name, p.chat_id
		FROM properties p
		JOIN meter_readings r ON r.property_id = p.id
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return out, nil
}

// ListPropertiesWithoutReadings returns properties that have no reading yet.
// They are offered on the sibling "more properties" selection branch.
func (s *Store) ListPropertiesWithoutReadings(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	err := s.db.SelectContext(ctx, &out, `
		SELECT p.id, p.name, p.chat_id
		FROM properties p
		WHERE NOT EXISTS (SELECT 1 FROM meter_readings r WHERE r.property_id = p.id)
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list properties without readings: %w", err)
	}
	return out, nil
}

// GetProperty fetches one property by id.
func (s *Store) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	var p domain.Property
	err := s.db.GetContext(ctx, &p,
		`SELECT id, name, chat_id FROM properties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Property{}, ErrNotFound
	}
	if err != nil {
		return domain.Property{}, fmt.Errorf("get property %d: %w", id, err)
	}
	return p, nil
}

// LatestReading returns the newest reading of a property, or ErrNotFound.
func (s *Store) LatestReading(ctx context.Context, propertyID int64) (domain.MeterReading, error) {
	var r domain.MeterReading
	err := s.db.GetContext(ctx, &r, `
		SELECT id, property_id, reading_date, value, created_at
		FROM meter_readings
		WHERE property_id = $1
		ORDER BY reading_date DESC, id DESC
		LIMIT 1`, propertyID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MeterReading{}, ErrNotFound
	}
	if err != nil {
		return domain.MeterReading{}, fmt.Errorf("latest reading for property %d: %w", propertyID, err)
	}
	return r, nil
}

// LatestReadingDate returns the most recent reading date across all
// properties. It pre-fills date prompts so repeated entry sessions need one
// tap instead of retyping.
func (s *Store) LatestReadingDate(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := s.db.GetContext(ctx, &t,
		`SELECT reading_date FROM meter_readings ORDER BY reading_date DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest reading date: %w", err)
	}
	return t, nil
}

// GetReading fetches one reading by id.
func (s *Store) GetReading(ctx context.Context, id int64) (domain.MeterReading, error) {
	var r domain.MeterReading
	err := s.db.GetContext(ctx, &r, `
		SELECT id, property_id, reading_date, value, created_at
		FROM meter_readings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MeterReading{}, ErrNotFound
	}
	if err != nil {
		return domain.MeterReading{}, fmt.Errorf("get reading %d: %w", id, err)
	}
	return r, nil
}

// PrecedingReading returns the reading immediately before the given date for
// a property, excluding excludeID. Editing a reading validates against this
// record rather than the edited record's own stale value.
func (s *Store) PrecedingReading(ctx context.Context, propertyID int64, before time.Time, excludeID int64) (domain.MeterReading, error) {
	r, err := precedingReading(ctx, s.db, propertyID, before, excludeID)
	if err != nil {
		return domain.MeterReading{}, err
	}
	return r, nil
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func precedingReading(ctx context.Context, q queryer, propertyID int64, before time.Time, excludeID int64) (domain.MeterReading, error) {
	var r domain.MeterReading
	err := q.GetContext(ctx, &r, `
		SELECT id, property_id, reading_date, value, created_at
		FROM meter_readings
		WHERE property_id = $1 AND reading_date <= $2 AND id <> $3
		ORDER BY reading_date DESC, id DESC
		LIMIT 1`, propertyID, before, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MeterReading{}, ErrNotFound
	}
	if err != nil {
		return domain.MeterReading{}, fmt.Errorf("preceding reading for property %d: %w", propertyID, err)
	}
	return r, nil
}

// CreateReading inserts a reading and its audit entry atomically. The
// monotonic invariant is re-checked against current data inside the
// transaction; a violation rolls everything back.
func (s *Store) CreateReading(ctx context.Context, propertyID int64, date time.Time, value decimal.Decimal, actorID int64) (domain.MeterReading, error) {
	var created domain.MeterReading
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		// Serialize concurrent inserts for one property.
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM properties WHERE id = $1 FOR UPDATE`, propertyID); err != nil {
			return fmt.Errorf("lock property %d: %w", propertyID, err)
		}

		prev, err := precedingReading(ctx, tx, propertyID, date, 0)
		switch {
		case errors.Is(err, ErrNotFound):
			// First reading for the property: only positivity applies.
		case err != nil:
			return err
		case value.LessThan(prev.Value):
			return &MonotonicityError{Value: value, Baseline: prev.Value}
		}

		err = tx.GetContext(ctx, &created, `
			INSERT INTO meter_readings (property_id, reading_date, value)
			VALUES ($1, $2, $3)
			RETURNING id, property_id, reading_date, value, created_at`,
			propertyID, date, value)
		if err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}

		return recordAudit(ctx, tx, domain.AuditEntry{
			EntityType: domain.EntityMeterReading,
			EntityID:   fmt.Sprint(created.ID),
			Action:     domain.AuditCreate,
			ActorID:    actorID,
			Changes: fmt.Sprintf("property=%d date=%s value=%s",
				propertyID, parse.FormatDate(date), parse.FormatDecimal(value)),
		})
	})
	if err != nil {
		return domain.MeterReading{}, err
	}

	logger.SVCReadings.Info("reading created",
		slog.String("event", "reading.create"),
		slog.Int64("property_id", propertyID),
		slog.Int64("reading_id", created.ID),
		slog.String("value", parse.FormatDecimal(value)),
		slog.Int64("actor_id", actorID),
	)
	return created, nil
}

// UpdateReading rewrites a reading's date and value with audit, validating
// the new value against the reading preceding it (by date, excluding the
// edited record itself).
func (s *Store) UpdateReading(ctx context.Context, id int64, date time.Time, value decimal.Decimal, actorID int64) (domain.MeterReading, error) {
	var updated domain.MeterReading
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		var old domain.MeterReading
		err := tx.GetContext(ctx, &old, `
			SELECT id, property_id, reading_date, value, created_at
			FROM meter_readings WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock reading %d: %w", id, err)
		}

		prev, err := precedingReading(ctx, tx, old.PropertyID, date, id)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case value.LessThan(prev.Value):
			return &MonotonicityError{Value: value, Baseline: prev.Value}
		}

		err = tx.GetContext(ctx, &updated, `
			UPDATE meter_readings SET reading_date = $2, value = $3
			WHERE id = $1
			RETURNING id, property_id, reading_date, value, created_at`,
			id, date, value)
		if err != nil {
			return fmt.Errorf("update reading %d: %w", id, err)
		}

		return recordAudit(ctx, tx, domain.AuditEntry{
			EntityType: domain.EntityMeterReading,
			EntityID:   fmt.Sprint(id),
			Action:     domain.AuditUpdate,
			ActorID:    actorID,
			Changes: fmt.Sprintf("date: %s -> %s; value: %s -> %s",
				parse.FormatDate(old.Date), parse.FormatDate(date),
				parse.FormatDecimal(old.Value), parse.FormatDecimal(value)),
		})
	})
	if err != nil {
		return domain.MeterReading{}, err
	}

	logger.SVCReadings.Info("reading updated",
		slog.String("event", "reading.update"),
		slog.Int64("reading_id", id),
		slog.String("value", parse.FormatDecimal(value)),
		slog.Int64("actor_id", actorID),
	)
	return updated, nil
}

// DeleteReading removes a reading with audit.
func (s *Store) DeleteReading(ctx context.Context, id int64, actorID int64) error {
	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		var old domain.MeterReading
		err := tx.GetContext(ctx, &old, `
			SELECT id, property_id, reading_date, value, created_at
			FROM meter_readings WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock reading %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM meter_readings WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete reading %d: %w", id, err)
		}

		return recordAudit(ctx, tx, domain.AuditEntry{
			EntityType: domain.EntityMeterReading,
			EntityID:   fmt.Sprint(id),
			Action:     domain.AuditDelete,
			ActorID:    actorID,
			Changes: fmt.Sprintf("property=%d date=%s value=%s",
				old.PropertyID, parse.FormatDate(old.Date), parse.FormatDecimal(old.Value)),
		})
	})
	if err != nil {
		return err
	}

	logger.SVCReadings.Info("reading deleted",
		slog.String("event", "reading.delete"),
		slog.Int64("reading_id", id),
		slog.Int64("actor_id", actorID),
	)
	return nil
}
