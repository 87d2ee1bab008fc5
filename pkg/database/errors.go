package database

import (
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsExclusionViolation reports an EXCLUDE constraint hit, which for the
// appointments table means an overlapping active booking.
func IsExclusionViolation(err error) bool {
	return pgCode(err) == codeExclusionViolation
}

// IsLockNotAvailable reports a lock wait that hit lock_timeout.
func IsLockNotAvailable(err error) bool {
	return pgCode(err) == codeLockNotAvailable
}

// IsTransient reports failures worth retrying: serialization and deadlock
// aborts, server restarts and dropped connections.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeAdminShutdown, codeCannotConnectNow:
		return true
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
