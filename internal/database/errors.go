package database

import (
	"errors"

	"github.com/lib/pq"
)

// IsUniqueViolation reports a Postgres unique_violation (23505), optionally on a named constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
