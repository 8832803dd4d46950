// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidData      = errors.New("invalid data")
	ErrNoData           = errors.New("no data")
	ErrCalc             = errors.New("calculation error")
	ErrEmptyUniverse    = errors.New("universe is empty")
	ErrNoMarketData     = errors.New("no market data for any ticker")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrUnknownSignal    = errors.New("unknown signal type")
)

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// CalcError represents a failure inside a model's indicator pipeline.
// It always matches ErrCalc.
type CalcError struct {
	Model string
	Stage string
	Err   error
}

func (e *CalcError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calc error [%s] %s: %v", e.Model, e.Stage, e.Err)
	}
	return fmt.Sprintf("calc error [%s] %s", e.Model, e.Stage)
}

func (e *CalcError) Unwrap() error {
	return e.Err
}

// Is makes every CalcError match ErrCalc.
func (e *CalcError) Is(target error) bool {
	return target == ErrCalc
}

// NewCalcError creates a new CalcError.
func NewCalcError(model, stage string, err error) *CalcError {
	return &CalcError{
		Model: model,
		Stage: stage,
		Err:   err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
