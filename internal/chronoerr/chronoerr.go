// Package chronoerr defines the named error kinds the core engine surfaces.
package chronoerr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of error the core engine can surface to callers.
type Kind int

const (
	// KindUnknown is the zero value; never returned by the engine itself.
	KindUnknown Kind = iota
	KindNotARepository
	KindRepositoryExists
	KindRevisionNotFound
	KindAmbiguousDigest
	KindBranchNotFound
	KindBranchExists
	KindCannotDeleteBranch
	KindTagNotFound
	KindTagExists
	KindBinaryFileDiff
	KindIOError
	KindLockContention
)

func (k Kind) String() string {
	switch k {
	case KindNotARepository:
		return "NotARepository"
	case KindRepositoryExists:
		return "RepositoryExists"
	case KindRevisionNotFound:
		return "RevisionNotFound"
	case KindAmbiguousDigest:
		return "AmbiguousDigest"
	case KindBranchNotFound:
		return "BranchNotFound"
	case KindBranchExists:
		return "BranchExists"
	case KindCannotDeleteBranch:
		return "CannotDeleteBranch"
	case KindTagNotFound:
		return "TagNotFound"
	case KindTagExists:
		return "TagExists"
	case KindBinaryFileDiff:
		return "BinaryFileDiff"
	case KindIOError:
		return "IOError"
	case KindLockContention:
		return "LockContention"
	default:
		return "Unknown"
	}
}

// Error is a named-kind error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error of the same Kind, so that
// errors.Is(err, chronoerr.NotARepository) style checks work without
// callers needing to know about the Message/Cause fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinels usable with errors.Is(err, chronoerr.NotARepository) — the
// Message/Cause fields are irrelevant for the comparison since Is
// only compares Kind.
var (
	NotARepository    = &Error{Kind: KindNotARepository}
	RepositoryExists  = &Error{Kind: KindRepositoryExists}
	RevisionNotFound  = &Error{Kind: KindRevisionNotFound}
	AmbiguousDigest   = &Error{Kind: KindAmbiguousDigest}
	BranchNotFound    = &Error{Kind: KindBranchNotFound}
	BranchExists      = &Error{Kind: KindBranchExists}
	CannotDeleteBranch = &Error{Kind: KindCannotDeleteBranch}
	TagNotFound       = &Error{Kind: KindTagNotFound}
	TagExists         = &Error{Kind: KindTagExists}
	BinaryFileDiff    = &Error{Kind: KindBinaryFileDiff}
	IOError           = &Error{Kind: KindIOError}
	LockContention    = &Error{Kind: KindLockContention}
)

// Of reports the Kind of err if it (or something it wraps) is a *Error,
// and KindUnknown otherwise.
func Of(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
