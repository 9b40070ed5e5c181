package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the order and wallet core. Callers match them with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrAlreadyResolved     = errors.New("already resolved")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// ValidationError reports bad input. No state is mutated when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalanceError carries the amount the customer is short by.
type InsufficientBalanceError struct {
	Shortfall int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: short by %d", e.Shortfall)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// TransitionError reports a state change that the lifecycle does not allow.
type TransitionError struct {
	Entity string
	Id     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.Id, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// StoreUnavailable wraps a persistence failure so that both the store-level cause and
// ErrStoreUnavailable match with errors.Is.
func StoreUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Shortfall extracts the shortfall from an InsufficientBalance error.
func Shortfall(err error) (int64, bool) {
	var ibe *InsufficientBalanceError
	if errors.As(err, &ibe) {
		return ibe.Shortfall, true
	}
	return 0, false
}
