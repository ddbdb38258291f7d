package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create booking: %w", AccessDeniedError{Msg: "accommodation is not available"})

	assert.True(t, IsAccessDenied(err))
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, "create booking: accommodation is not available", err.Error())
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "booking 42 not found", NotFoundError{Resource: "booking", Key: int64(42)}.Error())
	assert.Equal(t, "payment not found", NotFoundError{Resource: "payment"}.Error())
}

func TestProviderErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("renew: %w", PaymentProviderError{Op: "create session", Err: cause})

	assert.True(t, IsPaymentProvider(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create session failed")
}
