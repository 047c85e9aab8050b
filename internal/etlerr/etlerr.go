// Package etlerr classifies pipeline failures.
//
// Every stage wraps its failures in an *Error carrying a Kind so that callers
// (the CLI, metrics, tests) can branch on the category with errors.Is while
// still reaching the underlying cause with errors.As / errors.Unwrap.
//
// Categories:
//
//   - DataSource: a source is unreadable or lacks a required column.
//   - Parse:      a field value does not conform to its expected format.
//   - Schema:     a required output column is absent and no fill policy applies.
//   - IO:         an output destination is unwritable.
package etlerr

import (
	"errors"
	"fmt"
)

// Kind is the category of a pipeline failure.
type Kind string

const (
	KindDataSource Kind = "data_source"
	KindParse      Kind = "parse"
	KindSchema     Kind = "schema"
	KindIO         Kind = "io"
)

// Sentinels usable with errors.Is against any *Error of the same Kind.
var (
	ErrDataSource = &Error{Kind: KindDataSource}
	ErrParse      = &Error{Kind: KindParse}
	ErrSchema     = &Error{Kind: KindSchema}
	ErrIO         = &Error{Kind: KindIO}
)

// Error is a classified pipeline error.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// Op names the operation that failed, e.g. "extract: read columnar".
	Op string

	// Err is the underlying cause; may be nil for sentinel values.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s error", e.Kind)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind. This lets the
// package-level sentinels match any wrapped error of their category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// DataSource wraps err as a data-source failure of op.
func DataSource(op string, err error) error { return wrap(KindDataSource, op, err) }

// Parse wraps err as a parse failure of op.
func Parse(op string, err error) error { return wrap(KindParse, op, err) }

// Schema wraps err as a schema failure of op.
func Schema(op string, err error) error { return wrap(KindSchema, op, err) }

// IO wraps err as an output failure of op.
func IO(op string, err error) error { return wrap(KindIO, op, err) }

func wrap(k Kind, op string, err error) error {
	if err == nil {
		err = errors.New(string(k) + " error")
	}
	return &Error{Kind: k, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is nil or unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
