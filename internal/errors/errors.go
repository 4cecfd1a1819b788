// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a recoverable domain failure. Every contract in the
// core returns either nil or an error carrying one of these kinds, so
// callers can branch without string matching.
type Kind int

const (
	// KindValidation covers malformed input (bad tag format, bad enum value).
	KindValidation Kind = iota + 1
	// KindNotFound covers missing users, profiles, candidates, photos.
	KindNotFound
	// KindConflict covers duplicates: repeated like, repeated block, already matched.
	KindConflict
	// KindPrecondition covers unmet prerequisites: incomplete profile, no profile picture.
	KindPrecondition
	// KindState covers operations on a nonexistent edge, e.g. unlike without like.
	KindState
)

// Error is the domain error type. Wraps an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error   { return &Error{Kind: KindValidation, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }
func Precondition(msg string) error { return &Error{Kind: KindPrecondition, Msg: msg} }
func State(msg string) error        { return &Error{Kind: KindState, Msg: msg} }

// Wrap attaches a kind and message to an underlying cause.
func Wrap(k Kind, msg string, err error) error {
	return &Error{Kind: k, Msg: msg, Err: err}
}

// KindOf returns the kind of a domain error, or 0 for any other error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
