package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without inspecting messages.
type Kind string

const (
	Validation             Kind = "validation_error"
	NoSlotsProduced        Kind = "no_slots_produced"
	SlotUnavailable        Kind = "slot_unavailable"
	InsufficientBalance    Kind = "insufficient_balance"
	PersistenceFailure     Kind = "persistence_failure"
	ReconciliationRequired Kind = "reconciliation_required"
	IdentityAmbiguity      Kind = "identity_ambiguity"
	PermissionDenied       Kind = "permission_denied"
	NotFound               Kind = "not_found"
	Internal               Kind = "internal_error"
)

type Error struct {
	Code    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(code Kind, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(code Kind, err error, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validationf(format string, args ...any) error {
	return New(Validation, format, args...)
}

func Unavailablef(format string, args ...any) error {
	return New(SlotUnavailable, format, args...)
}

func Forbidden(op string) error {
	return New(PermissionDenied, "%s is not permitted for this caller", op)
}

// Reconciliation reports a persistence failure whose compensating action also failed.
// Both errors stay reachable through errors.Is / errors.As.
func Reconciliation(persistErr, compensateErr error, format string, args ...any) error {
	return &Error{
		Code:    ReconciliationRequired,
		Message: fmt.Sprintf(format, args...),
		Err:     errors.Join(persistErr, compensateErr),
	}
}

// KindOf returns the kind of the outermost typed error in the chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

func Is(err error, code Kind) bool {
	return err != nil && KindOf(err) == code
}

// Message returns the human part of a typed error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
