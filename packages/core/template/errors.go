package template

import (
	"errors"
	"fmt"
)

// ErrTemplate is the kind of every rendering failure.
var ErrTemplate = errors.New("template error")

// Error describes a rendering failure at a byte offset of the source.
type Error struct {
	Pos    int
	Expr   string
	Reason string
}

func (e *Error) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("template error at offset %d in {{ %s }}: %s", e.Pos, e.Expr, e.Reason)
	}
	return fmt.Sprintf("template error at offset %d: %s", e.Pos, e.Reason)
}

func (e *Error) Unwrap() error {
	return ErrTemplate
}
