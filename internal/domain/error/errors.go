package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientFunds     = 4001
	CodeInvalidAmount         = 4002
	CodeInvalidUserRef        = 4003
	CodeDuplicateOperation    = 4004
	CodeConstraintViolation   = 4005
	CodeAmountOverflow        = 4006
	CodeInvalidTokenCount     = 4007
	CodePricingNotConfigured  = 4008
	CodeUserNotFound          = 4040
	CodeConcurrencyConflict   = 4230

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrInsufficientFunds is returned when a debit would drive a balance negative
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNegativeAmount is returned when an amount crossing the API boundary is negative
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrAmountOverflow is returned when an amount exceeds the configured maximum
	ErrAmountOverflow = errors.New("amount exceeds configured maximum")

	// ErrInvalidTokenCount is returned when a token count is negative
	ErrInvalidTokenCount = errors.New("token count cannot be negative")

	// ErrInvalidUserRef is returned when a user reference is empty or malformed
	ErrInvalidUserRef = errors.New("invalid user reference")

	// ErrInvalidModelID is returned when the model id is empty
	ErrInvalidModelID = errors.New("model id cannot be empty")

	// ErrInvalidReference is returned when an external reference (payment id,
	// provider call id) is empty
	ErrInvalidReference = errors.New("external reference cannot be empty")

	// ErrPricingNotConfigured is returned when no active price exists for a
	// model; a call is never silently priced at zero
	ErrPricingNotConfigured = errors.New("no active price configured for model")

	// ErrConcurrencyConflict is returned when a balance write lost the version
	// race and internal retries were exhausted; safe to retry
	ErrConcurrencyConflict = errors.New("concurrent balance modification, retry the operation")

	// ErrDuplicateOperation signals that an idempotency key was already
	// committed by a concurrent caller; the guard resolves it via replay
	ErrDuplicateOperation = errors.New("operation with this idempotency key already recorded")

	// ErrUserNotFound is returned when the requested billing user doesn't exist
	ErrUserNotFound = errors.New("billing user not found")

	// ErrTopupNotFound is returned when a referenced topup doesn't exist
	ErrTopupNotFound = errors.New("topup not found")

	// ErrUsageLogNotFound is returned when a referenced usage log doesn't exist
	ErrUsageLogNotFound = errors.New("usage log not found")

	// ErrBalanceNotFound is returned when a balance row is missing where one
	// is required to exist
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrDatabaseConnection is returned when there's a problem reaching the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrNegativeAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidTokenCount):
		return CodeInvalidTokenCount
	case errors.Is(err, ErrInvalidUserRef):
		return CodeInvalidUserRef
	case errors.Is(err, ErrDuplicateOperation):
		return CodeDuplicateOperation
	case errors.Is(err, ErrAmountOverflow):
		return CodeAmountOverflow
	case errors.Is(err, ErrPricingNotConfigured):
		return CodePricingNotConfigured
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrConcurrencyConflict):
		return CodeConcurrencyConflict
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	default:
		return CodeInternalServer
	}
}

// InsufficientFundsError carries balance context for an affordability failure.
// Note that a denied usage charge is a normal business outcome and is
// reported through the charge result, not through this error; this error type
// exists for paths where a debit is requested unconditionally (admin adjust).
type InsufficientFundsError struct {
	UserID        int64
	RequiredMicro int64
	BalanceMicro  int64
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds for user %d: required %d micro-cents, available %d micro-cents",
		e.UserID, e.RequiredMicro, e.BalanceMicro)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "insufficient_funds",
		"user_id":        e.UserID,
		"required_micro": e.RequiredMicro,
		"balance_micro":  e.BalanceMicro,
		"error_code":     CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a detailed insufficient funds error
func NewInsufficientFundsError(userID, requiredMicro, balanceMicro int64) error {
	return &InsufficientFundsError{
		UserID:        userID,
		RequiredMicro: requiredMicro,
		BalanceMicro:  balanceMicro,
	}
}

// ConcurrencyConflictError reports a balance version race that exhausted its
// internal retry budget.
type ConcurrencyConflictError struct {
	UserID   int64
	Attempts int
}

// Error implements the error interface
func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("balance for user %d was modified concurrently, gave up after %d attempts",
		e.UserID, e.Attempts)
}

// Is checks if the target error is an ErrConcurrencyConflict
func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// LogFields returns a map of fields for structured logging
func (e *ConcurrencyConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "concurrency_conflict",
		"user_id":    e.UserID,
		"attempts":   e.Attempts,
		"error_code": CodeConcurrencyConflict,
	}
}

// NewConcurrencyConflictError creates a detailed concurrency conflict error
func NewConcurrencyConflictError(userID int64, attempts int) error {
	return &ConcurrencyConflictError{UserID: userID, Attempts: attempts}
}

// PricingError reports a pricing lookup failure for a model.
type PricingError struct {
	ModelID string
	At      string
}

// Error implements the error interface
func (e *PricingError) Error() string {
	return fmt.Sprintf("no active price for model %q at %s", e.ModelID, e.At)
}

// Is checks if the target error is an ErrPricingNotConfigured
func (e *PricingError) Is(target error) bool {
	return target == ErrPricingNotConfigured
}

// LogFields returns a map of fields for structured logging
func (e *PricingError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "pricing_not_configured",
		"model_id":   e.ModelID,
		"at":         e.At,
		"error_code": CodePricingNotConfigured,
	}
}

// NewPricingError creates a detailed pricing lookup error
func NewPricingError(modelID, at string) error {
	return &PricingError{ModelID: modelID, At: at}
}

// IsInsufficientFundsError checks if the error is related to insufficient funds
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsConcurrencyConflictError checks if the error is a balance version conflict
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsDuplicateOperationError checks if the error is an idempotency key collision
func IsDuplicateOperationError(err error) bool {
	return errors.Is(err, ErrDuplicateOperation)
}

// IsPricingNotConfiguredError checks if the error is a missing price
func IsPricingNotConfiguredError(err error) bool {
	return errors.Is(err, ErrPricingNotConfigured)
}

// IsValidationError checks if the error was raised before any read or write
func IsValidationError(err error) bool {
	return errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrAmountOverflow) ||
		errors.Is(err, ErrInvalidTokenCount) ||
		errors.Is(err, ErrInvalidUserRef) ||
		errors.Is(err, ErrInvalidModelID) ||
		errors.Is(err, ErrInvalidReference)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTopupNotFound) ||
		errors.Is(err, ErrUsageLogNotFound) ||
		errors.Is(err, ErrBalanceNotFound)
}
