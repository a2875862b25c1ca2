package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/story"
)

// Insert stores a new record. The insert is atomic: a record is either
// fully present afterwards or absent. Busy failures are retried; a
// primary-key collision surfaces as a distinct conflict and never
// overwrites the existing row.
func (s *Store) Insert(ctx context.Context, rec *story.Record) error {
	db, err := s.Conn()
	if err != nil {
		return errors.NewInternal(err)
	}

	var expiresAt sql.NullInt64
	if rec.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: *rec.ExpiresAt, Valid: true}
	}

	query := `
		INSERT INTO stories (id, title, body, encoding, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	return withBusyRetry(ctx, func() error {
		_, err := db.ExecContext(ctx, query,
			rec.ID, rec.Title, rec.Body, rec.Encoding, rec.CreatedAt, expiresAt,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return errors.NewConflict(rec.ID)
			}
			if isBusyError(err) {
				return err
			}
			return errors.NewInternal(err)
		}
		return nil
	})
}

// GetByID retrieves a record by id. Read-only, no retry: under WAL a
// reader does not block on writers, so a failure here is worth surfacing
// directly. Absence is reported as NOT_FOUND; expiry is the caller's
// concern.
func (s *Store) GetByID(ctx context.Context, id string) (*story.Record, error) {
	db, err := s.Conn()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	query := `
		SELECT id, title, body, encoding, created_at, expires_at
		FROM stories
		WHERE id = ?
	`

	var (
		rec       story.Record
		encoding  sql.NullString
		expiresAt sql.NullInt64
	)
	err = db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Title, &rec.Body, &encoding, &rec.CreatedAt, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	// NULL encoding marks a row from before the tag column existed
	rec.Encoding = encoding.String
	if expiresAt.Valid {
		rec.ExpiresAt = &expiresAt.Int64
	}

	return &rec, nil
}

// DeleteExpired removes every record whose expiry has passed at now
// (Unix seconds) and returns how many were removed. Retried on busy like
// Insert; the sweeper and the resolve path share the expiry predicate.
func (s *Store) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	db, err := s.Conn()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	query := `DELETE FROM stories WHERE expires_at IS NOT NULL AND expires_at < ?`

	var removed int64
	err = withBusyRetry(ctx, func() error {
		result, err := db.ExecContext(ctx, query, now)
		if err != nil {
			if isBusyError(err) {
				return err
			}
			return errors.NewInternal(err)
		}
		removed, err = result.RowsAffected()
		if err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE
// constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
