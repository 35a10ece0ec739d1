package common

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrConflict reports transient storage contention. The operation can be retried.
	ErrConflict = errors.New("edit conflict, please try again")
)

const (
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// UniqueViolation reports whether err is a unique constraint violation on the named constraint.
func UniqueViolation(err error, constraint string) bool {
	return pqViolation(err, pqUniqueViolation, constraint)
}

// ForeignKeyViolation reports whether err is a foreign key violation on the named constraint.
func ForeignKeyViolation(err error, constraint string) bool {
	return pqViolation(err, pqForeignKeyViolation, constraint)
}

func pqViolation(err error, code pq.ErrorCode, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code && pqErr.Constraint == constraint
	}

	return false
}

// StorageError wraps serialization failures and deadlocks with ErrConflict and returns every other error unchanged.
func StorageError(err error) error {
	if err == nil || errors.Is(err, ErrConflict) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		}
	}

	return err
}
