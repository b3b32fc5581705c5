package spiel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies the domain failures of the Spiel service.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindTitelExists
	KindIsbnExists
	KindNotExists
	KindVersionInvalid
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindTitelExists:
		return "TitelExistsError"
	case KindIsbnExists:
		return "IsbnExistsError"
	case KindNotExists:
		return "SpielNotExistsError"
	case KindVersionInvalid:
		return "VersionInvalidError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a caller-visible domain failure. Store and transport failures are
// never reported as *Error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds the per-field messages of a KindValidation error.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Kind == KindValidation && len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return "validation failed: " + strings.Join(parts, "; ")
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrTitelExists) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrTitelExists    = &Error{Kind: KindTitelExists, Message: "titel exists"}
	ErrIsbnExists     = &Error{Kind: KindIsbnExists, Message: "isbn exists"}
	ErrNotExists      = &Error{Kind: KindNotExists, Message: "spiel does not exist"}
	ErrVersionInvalid = &Error{Kind: KindVersionInvalid, Message: "version invalid"}
)

func newValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func newTitelExistsError(titel string) *Error {
	return &Error{Kind: KindTitelExists, Message: fmt.Sprintf("titel %q already exists", titel)}
}

func newIsbnExistsError(isbn string) *Error {
	return &Error{Kind: KindIsbnExists, Message: fmt.Sprintf("isbn %q already exists", isbn)}
}

func newNotExistsError(id string) *Error {
	return &Error{Kind: KindNotExists, Message: fmt.Sprintf("no spiel with id %s", id)}
}

func newVersionInvalidError(format string, args ...any) *Error {
	return &Error{Kind: KindVersionInvalid, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a domain error, or 0 for any other error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
