// package repositories provides the sqlite persistence layer for accounts and sessions.
//
// Users implement models.Repository[T] with soft deletes and sequence generation. Sessions are a plain registry
// of issued refresh tokens.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/moviex/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., user #42).
// They are NOT exposed in CLI output but used internally for sorting and debugging.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// duplicateError maps a unique-constraint violation to the sentinel naming the offending column.
// Any other error is returned unchanged.
//
// sqlite reports "UNIQUE constraint failed: users.email"; index-named messages (users_email_key) are matched
// as well.
func duplicateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	unique := errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	msg := err.Error()
	if !unique && !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key") {
		return err
	}

	switch {
	case strings.Contains(msg, "users.email") || strings.Contains(msg, "users_email_key"):
		return fmt.Errorf("%w: %w", shared.ErrDuplicateEmail, err)
	case strings.Contains(msg, "users.userid") || strings.Contains(msg, "users_userid_key"):
		return fmt.Errorf("%w: %w", shared.ErrDuplicateUserID, err)
	default:
		return fmt.Errorf("%w: %w", shared.ErrDuplicateValue, err)
	}
}
