package core

import (
	"fmt"
	"time"

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// InvalidRangeError is returned for a window whose start is after its end.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
	Msg   string
}

func NewInvalidRangeError(start, end time.Time, msg ...string) error {
	err := &InvalidRangeError{Start: start, End: end}
	if len(msg) > 0 {
		err.Msg = msg[0]
	}
	return err
}

func (err *InvalidRangeError) Error() string {
	if err.Msg != "" {
		return "invalid range: " + err.Msg
	}
	return fmt.Sprintf("invalid range: start %s is after end %s",
		err.Start.Format("2006-01-02"), err.End.Format("2006-01-02"))
}

func IsInvalidRange(err error) bool {
	_, ok := errors.Cause(err).(*InvalidRangeError)
	return ok
}

// NotFoundError is the type of every "not found" sentinel (user.ErrNotFound, child.ErrNotFound, ...).
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (err *NotFoundError) Error() string {
	return err.msg
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// StoreUnavailableError wraps an underlying persistence failure.
// It deliberately has no Cause method: errors.Cause stops here and callers can still match the kind.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func NewStoreUnavailableError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

func (err *StoreUnavailableError) Error() string {
	return "store unavailable: " + err.Op + ": " + err.Err.Error()
}

func (err *StoreUnavailableError) Unwrap() error { return err.Err }

func IsStoreUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*StoreUnavailableError)
	return ok
}

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
