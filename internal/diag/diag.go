// Package diag defines the error kinds reported by the compile stages.
package diag

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Kind classifies a compile error.
type Kind int

const (
	// KindMalformed is a syntax or structure error in a script or source file.
	KindMalformed Kind = iota + 1
	// KindLink is an unresolved reference, a hierarchy conflict or a table
	// grown past its fixed capacity.
	KindLink
	// KindLimit is an output that does not fit its byte budget or offset
	// width.
	KindLimit
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed input"
	case KindLink:
		return "link error"
	case KindLimit:
		return "limit exceeded"
	default:
		return "error"
	}
}

// Error is a compile error with optional source position.
type Error struct {
	Kind Kind
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	default:
		return e.Msg
	}
}

// Malformed returns a KindMalformed error positioned at file:line.
func Malformed(file string, line int, format string, args ...any) *Error {
	return &Error{Kind: KindMalformed, File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Link returns a KindLink error.
func Link(format string, args ...any) *Error {
	return &Error{Kind: KindLink, Msg: fmt.Sprintf(format, args...)}
}

// Capacity returns a KindLink error for a bone, vertex, mesh or other table
// that outgrew its fixed size.
func Capacity(format string, args ...any) *Error {
	return Link(format, args...)
}

// Limit returns a KindLimit error.
func Limit(format string, args ...any) *Error {
	return &Error{Kind: KindLimit, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err, or any error it combines or wraps, is a
// *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for _, e := range multierr.Errors(err) {
		var de *Error
		if errors.As(e, &de) && de.Kind == kind {
			return true
		}
	}
	return false
}

// List accumulates errors so a stage can report every problem at once.
type List struct {
	err error
}

// Add appends err if it is non-nil.
func (l *List) Add(err error) {
	l.err = multierr.Append(l.err, err)
}

// Len returns the number of accumulated errors.
func (l *List) Len() int {
	return len(multierr.Errors(l.err))
}

// Err returns the combined error, or nil when nothing was added.
func (l *List) Err() error {
	return l.err
}
