package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/pravodoc/pravodoc-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation (23505)
	case "23505":
		if strings.Contains(pqErr.Constraint, "contract_number") {
			return errors.Conflict("a contract with this number already exists")
		}
		return errors.Conflict("a record with these values already exists")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}
