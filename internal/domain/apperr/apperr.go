// Package apperr classifies domain errors so transports can map them to
// status codes without knowing every concrete error type.
package apperr

import "github.com/go-faster/errors"

// Kind is the category of a domain failure.
type Kind int

const (
	// Internal covers infrastructure failures and anything unclassified.
	Internal Kind = iota
	// Validation means the caller sent malformed or out-of-range input.
	Validation
	// NotFound means the addressed entity does not exist.
	NotFound
	// BusinessRule means the input was well-formed but violates a domain rule.
	BusinessRule
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case BusinessRule:
		return "business_rule"
	default:
		return "internal"
	}
}

// Kinder is implemented by errors that carry a Kind.
type Kinder interface {
	Kind() Kind
}

// KindOf returns the Kind of the first error in the chain that declares one,
// or Internal.
func KindOf(err error) Kind {
	var k Kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Internal
}

// Error is a message tagged with a Kind. Sentinel errors in domain packages
// are declared as *Error so they can be compared with errors.Is.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind implements Kinder.
func (e *Error) Kind() Kind { return e.kind }

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// ValidationError reports input that failed a shape or range check.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Kind implements Kinder.
func (e *ValidationError) Kind() Kind { return Validation }

// Invalidf returns a *ValidationError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: errors.Errorf(format, args...).Error()}
}
