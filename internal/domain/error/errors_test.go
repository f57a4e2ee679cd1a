package error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		err      error
		expected int
	}{
		{ErrInsufficientFunds, CodeInsufficientFunds},
		{ErrNegativeAmount, CodeInvalidAmount},
		{ErrInvalidTokenCount, CodeInvalidTokenCount},
		{ErrInvalidUserRef, CodeInvalidUserRef},
		{ErrDuplicateOperation, CodeDuplicateOperation},
		{ErrAmountOverflow, CodeAmountOverflow},
		{ErrPricingNotConfigured, CodePricingNotConfigured},
		{ErrUserNotFound, CodeUserNotFound},
		{ErrConcurrencyConflict, CodeConcurrencyConflict},
		{ErrConstraintViolation, CodeConstraintViolation},
		{errors.New("anything else"), CodeInternalServer},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ErrorCode(tc.err), "error: %v", tc.err)
	}

	// Wrapped errors resolve to the code of their sentinel.
	wrapped := fmt.Errorf("context: %w", ErrAmountOverflow)
	assert.Equal(t, CodeAmountOverflow, ErrorCode(wrapped))
}

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFundsError(7, 228_000, 100_000)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, IsInsufficientFundsError(err))
	assert.Contains(t, err.Error(), "user 7")

	var ife *InsufficientFundsError
	assert.ErrorAs(t, err, &ife)
	assert.Equal(t, int64(228_000), ife.RequiredMicro)

	fields := ife.LogFields()
	assert.Equal(t, "insufficient_funds", fields["error_type"])
	assert.Equal(t, CodeInsufficientFunds, fields["error_code"])
}

func TestConcurrencyConflictError(t *testing.T) {
	err := NewConcurrencyConflictError(7, 3)

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.True(t, IsConcurrencyConflictError(err))
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestPricingError(t *testing.T) {
	err := NewPricingError("gpt-4o", "2025-06-01T12:00:00Z")

	assert.ErrorIs(t, err, ErrPricingNotConfigured)
	assert.True(t, IsPricingNotConfiguredError(err))
	assert.Contains(t, err.Error(), "gpt-4o")
}

func TestErrorClassifiers(t *testing.T) {
	t.Run("validation errors", func(t *testing.T) {
		for _, err := range []error{
			ErrNegativeAmount, ErrAmountOverflow, ErrInvalidTokenCount,
			ErrInvalidUserRef, ErrInvalidModelID, ErrInvalidReference,
		} {
			assert.True(t, IsValidationError(err), "error: %v", err)
		}
		assert.False(t, IsValidationError(ErrUserNotFound))
	})

	t.Run("not found errors", func(t *testing.T) {
		for _, err := range []error{
			ErrNotFound, ErrUserNotFound, ErrTopupNotFound,
			ErrUsageLogNotFound, ErrBalanceNotFound,
		} {
			assert.True(t, IsNotFoundError(err), "error: %v", err)
		}
		assert.False(t, IsNotFoundError(ErrInsufficientFunds))
	})

	t.Run("duplicate operation", func(t *testing.T) {
		assert.True(t, IsDuplicateOperationError(fmt.Errorf("wrapped: %w", ErrDuplicateOperation)))
		assert.False(t, IsDuplicateOperationError(ErrConstraintViolation))
	})
}
