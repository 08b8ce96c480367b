package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/locazos/stream-mate-match/internal/domain/model"
)

const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateCheckViolation
}

// classify maps driver errors into the engine taxonomy. Constraint violations are
// conflicts or bad input; anything else is treated as the store being unavailable.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return errors.Join(model.ErrConflict, err)
	case isCheckViolation(err):
		return errors.Join(model.ErrValidation, err)
	default:
		return model.StoreFailure(op, err)
	}
}
