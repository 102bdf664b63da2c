package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// MapError converts pgx/pgconn errors to catalog errors, prefixed with the
// entity and key involved. Context errors are wrapped but not mapped.
func MapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %q: %w", entity, key, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", entity, key, symbol.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %q: %w: %s", entity, key, symbol.ErrInvalidVocabulary, pgErr.Detail)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %q: %w", entity, key, symbol.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %q: %w: %s", entity, key, symbol.ErrInvalidVocabulary, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s %q: %w", entity, key, err)
}
