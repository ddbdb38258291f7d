package errors

import (
	"errors"
	"fmt"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// NotFoundError: referenced entity does not exist
type NotFoundError struct {
	Resource string
	Key      any
}

func (e NotFoundError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

// AccessDeniedError: ownership, role, availability or outstanding-payment policy violated
type AccessDeniedError struct {
	Msg string
}

func (e AccessDeniedError) Error() string {
	if e.Msg == "" {
		return ErrForbidden.Error()
	}
	return e.Msg
}

func (e AccessDeniedError) Unwrap() error { return ErrForbidden }

// InvalidStateError: booking state machine precondition violated
type InvalidStateError struct {
	Msg string
}

func (e InvalidStateError) Error() string { return e.Msg }

// PaymentConflictError: payment state machine precondition violated
type PaymentConflictError struct {
	Msg string
}

func (e PaymentConflictError) Error() string { return e.Msg }

// PaymentProviderError: checkout provider call failed or returned malformed data
type PaymentProviderError struct {
	Op  string
	Err error
}

func (e PaymentProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("payment provider: %s failed", e.Op)
	}
	return fmt.Sprintf("payment provider: %s failed: %v", e.Op, e.Err)
}

func (e PaymentProviderError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsAccessDenied(err error) bool {
	var target AccessDeniedError
	return errors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target InvalidStateError
	return errors.As(err, &target)
}

func IsPaymentConflict(err error) bool {
	var target PaymentConflictError
	return errors.As(err, &target)
}

func IsPaymentProvider(err error) bool {
	var target PaymentProviderError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}
