package parser

import (
	"errors"
	"fmt"
)

// Error kinds returned by Parse and Load. Compare with errors.Is.
var (
	// ErrGrammar covers malformed quoting, a missing curl keyword,
	// unterminated escapes and flags missing their value.
	ErrGrammar = errors.New("grammar error")

	// ErrDuplicateURL is returned when more than one positional URL is given.
	ErrDuplicateURL = errors.New("duplicate url")

	// ErrMissingURL is returned when the command names no URL at all.
	ErrMissingURL = errors.New("missing url")

	// ErrDuplicateHeader is returned when a header that is not list-like
	// is given twice with different values.
	ErrDuplicateHeader = errors.New("duplicate header")

	// ErrHeaderFormat is returned for a header without a colon or name.
	ErrHeaderFormat = errors.New("malformed header")

	// ErrAuthFormat is returned when -u has no colon separator.
	ErrAuthFormat = errors.New("malformed credentials")

	// ErrInvalidURL is returned when URL parsing is enabled and the URL
	// cannot be parsed.
	ErrInvalidURL = errors.New("invalid url")

	// ErrUnsupportedMethod is returned when -X names a non-standard verb.
	ErrUnsupportedMethod = errors.New("unsupported method")
)

// Error carries the kind of failure plus where it happened.
type Error struct {
	Kind   error  // one of the Err* kinds above
	Pos    int    // byte offset into the rendered command, -1 if unknown
	Detail string // human readable detail
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, pos int, format string, args ...any) error {
	return &Error{
		Kind:   kind,
		Pos:    pos,
		Detail: fmt.Sprintf(format, args...),
	}
}
