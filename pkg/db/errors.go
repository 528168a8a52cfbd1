package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres error codes the merge executor cares about.
const (
	pgCodeLockNotAvailable = "55P03"
	pgCodeSerialization    = "40001"
	pgCodeDeadlockDetected = "40P01"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper
// looks for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}

// IsLockContention reports whether the error came from a lock timeout,
// serialization failure or deadlock. Callers treat these as retryable
// conflicts rather than infrastructure failures.
func IsLockContention(err error) bool {
	code := pgErrorCode(err)
	switch code {
	case pgCodeLockNotAvailable, pgCodeSerialization, pgCodeDeadlockDetected:
		return true
	}
	return false
}

func pgErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
