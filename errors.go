package docukit

import (
	"errors"
	"fmt"
)

// Kind classifies an error so that callers can pattern-match on the failure
// class instead of inspecting error instances.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInvalidCursor - the cursor token is malformed or its anchor does not
	// resolve to a visible document. The sub-cases are deliberately
	// indistinguishable so that a token cannot probe document existence
	// across scope boundaries.
	KindInvalidCursor
	// KindNotFound - the document does not exist, is soft-deleted, or is out
	// of the repository scope.
	KindNotFound
	// KindConflict - a versioned write lost the race against a concurrent
	// writer.
	KindConflict
	// KindUnavailable - the underlying store failed. The cause is wrapped and
	// passed through; retries belong to the store client, not this layer.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCursor:
		return "invalid_cursor"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package. Two Errors match under
// errors.Is when their Kinds are equal, so the Err* sentinels below work as
// targets for any wrapped occurrence of the same kind.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}

	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	return ok && te.Kind == e.Kind
}

var (
	ErrInvalidCursor    = &Error{Kind: KindInvalidCursor, msg: "invalid cursor"}
	ErrNotFound         = &Error{Kind: KindNotFound, msg: "document not visible"}
	ErrVersionConflict  = &Error{Kind: KindConflict, msg: "version conflict"}
	ErrStoreUnavailable = &Error{Kind: KindUnavailable, msg: "store unavailable"}
)

// KindOf extracts the Kind from an error chain. Returns KindUnknown for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

func wrapErr(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, msg: msg, cause: cause}
}
