package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind groups service errors into the categories callers act on.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	// KindNotFoundOrUnauthorized deliberately hides whether a row exists,
	// who owns it, or what state it is in.
	KindNotFoundOrUnauthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFoundOrUnauthorized:
		return "not_found_or_unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUserNotFound = errors.New("user not found")
)

var errorKinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindValidation},
	{ErrCannotFriendSelf, KindValidation},
	{ErrInvalidQRCode, KindValidation},
	{ErrQRCodeExpired, KindValidation},
	{ErrFriendshipExists, KindConflict},
	{ErrAlreadyCheckedIn, KindConflict},
	{ErrNoActiveCheckIn, KindConflict},
	{ErrFriendshipNotFoundOrUnauthorized, KindNotFoundOrUnauthorized},
	{ErrUserNotFound, KindNotFound},
	{ErrParkNotFound, KindNotFound},
}

// ErrorKind classifies err. Anything not produced by a service is internal.
func ErrorKind(err error) Kind {
	if err == nil {
		return KindInternal
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

// foreignKeyViolation reports the violated constraint name, if err is one.
func foreignKeyViolation(err error) (string, bool) {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != pgForeignKeyViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}
