package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// StoreErrorKind is the typed classification of a database failure. Callers
// branch on kinds; the raw backend message is carried only for logging.
type StoreErrorKind string

const (
	ErrKindNotFound   StoreErrorKind = "not_found"
	ErrKindForeignKey StoreErrorKind = "foreign_key"
	ErrKindPermission StoreErrorKind = "permission"
	ErrKindConflict   StoreErrorKind = "conflict"
	ErrKindOther      StoreErrorKind = "other"
)

// Postgres error codes relevant to this service.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgInsufficientPriv    = "42501"
)

type StoreError struct {
	Kind StoreErrorKind
	Hint string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TranslateError converts a driver error into a typed StoreError. Foreign-key
// violations on persona references mean the persona row is gone; privilege
// failures and empty results both read as access-policy problems to the
// caller, mirroring how row-level security hides rows instead of refusing.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Kind: ErrKindNotFound, Hint: "check access policy", Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgForeignKeyViolation:
			return &StoreError{Kind: ErrKindForeignKey, Hint: "persona not found", Err: err}
		case pgInsufficientPriv:
			return &StoreError{Kind: ErrKindPermission, Hint: "check access policy", Err: err}
		case pgUniqueViolation:
			return &StoreError{Kind: ErrKindConflict, Hint: "record already exists", Err: err}
		}
	}

	return &StoreError{Kind: ErrKindOther, Err: err}
}

// ErrorKind extracts the typed kind from any error chain.
func ErrorKind(err error) StoreErrorKind {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrKindOther
}

// ErrorHint returns the remediation hint attached by TranslateError, or an
// empty string when there is none.
func ErrorHint(err error) string {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Hint
	}
	return ""
}
