package cart

import (
	"errors"
	"fmt"
)

// Kind classifies a failed cart operation.
type Kind int

const (
	KindRequestFailed Kind = iota
	KindNotAuthenticated
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotAuthenticated:
		return "NOT_AUTHENTICATED"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "REQUEST_FAILED"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotAuthenticated = &Error{Kind: KindNotAuthenticated}
	ErrRequestFailed    = &Error{Kind: KindRequestFailed}
	ErrNotFound         = &Error{Kind: KindNotFound}
)

// Error is returned by every Model operation that fails.
type Error struct {
	Kind   Kind
	Op     string
	LineID string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.LineID != "" {
		msg += fmt.Sprintf(" (line %s)", e.LineID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.LineID == "" && t.Err == nil && t.Kind == e.Kind
}

// NotFound builds a KindNotFound error. Repositories use it for rows that
// no longer exist.
func NotFound(op, lineID string) *Error {
	return &Error{Kind: KindNotFound, Op: op, LineID: lineID}
}

// NotAuthenticated builds a KindNotAuthenticated error.
func NotAuthenticated(op string) *Error {
	return &Error{Kind: KindNotAuthenticated, Op: op}
}

// RequestFailed wraps a transport, server or permission failure.
func RequestFailed(op string, err error) *Error {
	return &Error{Kind: KindRequestFailed, Op: op, Err: err}
}

// KindOf reports the Kind of err. Errors that did not come from this package
// are RequestFailed.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindRequestFailed
}

// wrap attaches op and lineID to err, keeping the kind a repository chose.
func wrap(op, lineID string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return &Error{Kind: ce.Kind, Op: op, LineID: lineID, Err: ce.Err}
	}
	return &Error{Kind: KindRequestFailed, Op: op, LineID: lineID, Err: err}
}
