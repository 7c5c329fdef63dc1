package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrNotFound indicates the addressed row does not exist.
	ErrNotFound = errors.New("aggregate not found")
	// ErrConflict indicates a guarded update lost its race.
	ErrConflict = errors.New("aggregate conflict")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// NotFoundError tags an error as a missing row.
func NotFoundError(msg string) error {
	return errors.Join(ErrNotFound, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// MapError maps storage and domain failures into aggregate error codes.
// Anything the storage layer raises becomes a transaction error carrying the
// storage message.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.NewError(domainagg.CodeValidation, op, tagMessage(err, ErrValidation), err)
	case errors.Is(err, ErrNotFound):
		return domainagg.NewError(domainagg.CodeNotFound, op, tagMessage(err, ErrNotFound), err)
	case errors.Is(err, ErrConflict):
		return domainagg.NewError(domainagg.CodeConflict, op, tagMessage(err, ErrConflict), err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeTransaction, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg := fmt.Sprintf("%s (sqlstate %s)", strings.TrimSpace(pgErr.Message), pgErr.Code)
		if pgErr.ConstraintName != "" {
			msg += " constraint " + pgErr.ConstraintName
		}
		return domainagg.NewError(domainagg.CodeTransaction, op, msg, err)
	}
	return domainagg.Wrap(domainagg.CodeTransaction, op, err)
}

// tagMessage strips the sentinel line from a joined error message.
func tagMessage(err, sentinel error) string {
	lines := strings.Split(err.Error(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l == sentinel.Error() {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, ": ")
}
