// Package apperr defines the error kinds shared by the scoring engine, the
// review store and the HTTP surface.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Every engine error wraps exactly one of these.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyLocked       = errors.New("already locked")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrDataSource          = errors.New("data source error")
	ErrForbidden           = errors.New("forbidden")
)

// Error carries the operation, the kind and a human-readable message.
type Error struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err == nil && e.Kind != nil {
		msg = e.Kind.Error()
	}
	switch {
	case msg == "" && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case msg == "":
		return e.Err.Error()
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind builds an error of the given kind.
func NewKind(op string, kind error, msg string) error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with op, keeping whatever kind it already has. Errors
// already raised by op are returned as is.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok && e.Op == op {
		return err
	}
	return &Error{Op: op, Kind: KindOf(err), Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrAlreadyLocked,
	ErrConcurrencyConflict,
	ErrDataSource,
	ErrForbidden,
}

// KindOf returns the kind of err, or nil for errors outside the taxonomy.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the innermost human-readable message of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		if e.Err != nil {
			return Message(e.Err)
		}
		if e.Kind != nil {
			return e.Kind.Error()
		}
	}
	return err.Error()
}

// Is* helpers keep call sites short.
func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsAlreadyLocked(err error) bool { return errors.Is(err, ErrAlreadyLocked) }
func IsConflict(err error) bool      { return errors.Is(err, ErrConcurrencyConflict) }
