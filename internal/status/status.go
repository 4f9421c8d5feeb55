// Package status defines the failure taxonomy shared by all marketplace
// operations. Every service returns either nil or a *Error whose Kind tells
// the transport layer how to answer the caller.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind int

const (
	// KindInternal is the fallback for unexpected failures.
	KindInternal Kind = iota
	// KindValidation: malformed or missing input; Fields lists every violation.
	KindValidation
	// KindNotFound: the entity is absent or not owned by the caller. The two
	// cases are deliberately indistinguishable so one tenant cannot probe for
	// another tenant's rows.
	KindNotFound
	// KindInvalidState: the operation is illegal for the record's current status.
	KindInvalidState
	// KindConflict: the write would break a uniqueness or exclusivity invariant.
	KindConflict
	// KindExternal: a collaborator (payment, storage) failed.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	// Fields maps field name to the reason it failed validation. Only set
	// for KindValidation.
	Fields map[string]string
	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func External(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Message: fmt.Sprintf(format, args...), Err: err}
}

func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the Kind carried by err, or KindInternal when err is not a
// taxonomy error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
