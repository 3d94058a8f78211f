package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError indicates that a resource could not be resolved.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ConflictError indicates a uniqueness violation on the given field.
type ConflictError struct {
	Err   error
	Field string
}

func NewConflictError(err error, field string) error {
	return &ConflictError{Err: err, Field: field}
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return err.Field + " already exists"
	}
	return err.Err.Error()
}

// ReconciliationError indicates that a ledger mutation and its matching
// account-balance update did not both complete, leaving the account's derived
// balance out of sync with the ledger. It is surfaced distinctly so callers
// can alert an operator instead of treating it as an ordinary failure.
type ReconciliationError struct {
	Op        string
	AccountID string
	Err       error
}

func NewReconciliationError(op, accountID string, err error) error {
	return &ReconciliationError{Op: op, AccountID: accountID, Err: err}
}

func (err ReconciliationError) Error() string {
	return fmt.Sprintf("ledger reconciliation failed: %s on account %s: %v", err.Op, err.AccountID, err.Err)
}

func (err ReconciliationError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
