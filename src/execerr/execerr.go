// Package execerr implements the engine's error taxonomy (spec.md §7): a
// small, closed set of error kinds every layer of the engine tags its errors
// with, so callers can branch on kind without string-matching messages.
package execerr

import "fmt"

// Kind is the closed set of error categories the execution engine raises.
type Kind uint8

const (
	Unknown Kind = iota
	InvalidArgument
	InvalidValue
	InvalidType
	Parse
	Type
	Execution
	Catalog
	Transaction
	NotImplemented
	Internal
)

var kindNames = [...]string{
	"unknown", "invalid_argument", "invalid_value", "invalid_type", "parse",
	"type", "execution", "catalog", "transaction", "not_implemented", "internal",
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Error is a Kind-tagged error, optionally wrapping an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, otherwise
// Unknown.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if ee, ok := err.(*Error); ok {
			e = ee
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.Kind
}

func Is(err error, kind Kind) bool { return KindOf(err) == kind }

func InvalidArgumentf(format string, args ...interface{}) *Error {
	return New(InvalidArgument, format, args...)
}
func InvalidValuef(format string, args ...interface{}) *Error {
	return New(InvalidValue, format, args...)
}
func InvalidTypef(format string, args ...interface{}) *Error { return New(InvalidType, format, args...) }
func Parsef(format string, args ...interface{}) *Error       { return New(Parse, format, args...) }
func Typef(format string, args ...interface{}) *Error        { return New(Type, format, args...) }
func Executionf(format string, args ...interface{}) *Error   { return New(Execution, format, args...) }
func Catalogf(format string, args ...interface{}) *Error     { return New(Catalog, format, args...) }
func Transactionf(format string, args ...interface{}) *Error { return New(Transaction, format, args...) }
func NotImplementedf(format string, args ...interface{}) *Error {
	return New(NotImplemented, format, args...)
}
func Internalf(format string, args ...interface{}) *Error { return New(Internal, format, args...) }
