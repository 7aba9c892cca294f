/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an item is not found
	ErrNotFound = errors.New("item not found")

	// ErrInvalidInput is returned when an operation is built from invalid input
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionNotMet is returned when a write precondition evaluates to false
	ErrConditionNotMet = errors.New("condition not met")

	// ErrDecode is returned when a stored item cannot be decoded
	ErrDecode = errors.New("decode failed")

	// ErrThroughputExhausted is returned when batch items remain unprocessed after all retries
	ErrThroughputExhausted = errors.New("throughput exhausted")

	// ErrProviderFault is returned for any other provider-reported error
	ErrProviderFault = errors.New("provider fault")
)

// NotFoundError represents an error when an item is not found
type NotFoundError struct {
	Table string
	Key   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s item with key %q not found", e.Table, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// DecodeKind classifies a decode failure
type DecodeKind int

const (
	// MissingProperty means a required attribute is absent from the item
	MissingProperty DecodeKind = iota + 1
	// TypeMismatch means an attribute holds a different kind than the target field
	TypeMismatch
	// InvalidValue means an attribute has the right kind but an unusable value
	InvalidValue
)

func (k DecodeKind) String() string {
	switch k {
	case MissingProperty:
		return "missing property"
	case TypeMismatch:
		return "type mismatch"
	case InvalidValue:
		return "invalid value"
	default:
		return "unknown"
	}
}

// DecodeError reports why a single item could not be decoded
type DecodeError struct {
	Kind      DecodeKind
	Attribute string
	Message   string
	Err       error
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode: ")
	b.WriteString(e.Kind.String())
	if e.Attribute != "" {
		fmt.Fprintf(&b, " for attribute %q", e.Attribute)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConditionNotMetError represents a precondition that did not hold for a write
type ConditionNotMetError struct {
	Operation string
	Table     string
}

func (e *ConditionNotMetError) Error() string {
	return fmt.Sprintf("condition not met for %s on table %s", e.Operation, e.Table)
}

func (e *ConditionNotMetError) Is(target error) bool {
	return target == ErrConditionNotMet
}

// ThroughputExhaustedError marks a batch item still unprocessed after the retry budget
type ThroughputExhaustedError struct {
	Operation string
	Table     string
	Key       string
	Attempts  int
}

func (e *ThroughputExhaustedError) Error() string {
	return fmt.Sprintf("%s on table %s left key %s unprocessed after %d attempts", e.Operation, e.Table, e.Key, e.Attempts)
}

func (e *ThroughputExhaustedError) Is(target error) bool {
	return target == ErrThroughputExhausted
}

// FaultReason classifies a provider fault
type FaultReason int

const (
	ReasonUnknown FaultReason = iota
	ReasonThrottled
	ReasonValidation
	ReasonAccess
	ReasonNotFound
	ReasonUnavailable
)

func (r FaultReason) String() string {
	switch r {
	case ReasonThrottled:
		return "throttled"
	case ReasonValidation:
		return "validation"
	case ReasonAccess:
		return "access"
	case ReasonNotFound:
		return "resource not found"
	case ReasonUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ProviderFaultError is a provider-reported error that aborts the step it occurred in.
// The original provider error is flattened into Code and Message and is not wrapped.
type ProviderFaultError struct {
	Operation string
	Table     string
	Reason    FaultReason
	Code      string
	Message   string
	Retryable bool
}

func (e *ProviderFaultError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s on table %s failed (%s, %s): %s", e.Operation, e.Table, e.Reason, e.Code, e.Message)
	}
	return fmt.Sprintf("%s on table %s failed (%s): %s", e.Operation, e.Table, e.Reason, e.Message)
}

func (e *ProviderFaultError) Is(target error) bool {
	return target == ErrProviderFault
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(table, key string) error {
	return &NotFoundError{Table: table, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(kind DecodeKind, attribute, message string) error {
	return &DecodeError{Kind: kind, Attribute: attribute, Message: message}
}

// NewConditionNotMetError creates a new ConditionNotMetError
func NewConditionNotMetError(operation, table string) error {
	return &ConditionNotMetError{Operation: operation, Table: table}
}

// NewThroughputExhaustedError creates a new ThroughputExhaustedError
func NewThroughputExhaustedError(operation, table, key string, attempts int) error {
	return &ThroughputExhaustedError{Operation: operation, Table: table, Key: key, Attempts: attempts}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsDecodeError checks if an error is a decode error
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsConditionNotMet checks if an error is a failed precondition
func IsConditionNotMet(err error) bool {
	return errors.Is(err, ErrConditionNotMet)
}

// IsThroughputExhausted checks if an error is a throughput exhaustion error
func IsThroughputExhausted(err error) bool {
	return errors.Is(err, ErrThroughputExhausted)
}

// IsProviderFault checks if an error is a provider fault
func IsProviderFault(err error) bool {
	return errors.Is(err, ErrProviderFault)
}

// DecodeKindOf returns the decode kind of err, or 0 when err is not a decode error
func DecodeKindOf(err error) DecodeKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
