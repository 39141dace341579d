package tournamenttypes

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable, caller-facing kind of a domain failure.
type ErrorCode string

const (
	CodeInvalidArgument    ErrorCode = "invalid_argument"
	CodeNotFound           ErrorCode = "not_found"
	CodeFailedPrecondition ErrorCode = "failed_precondition"
	CodeRoomFull           ErrorCode = "room_full"
	CodeConflict           ErrorCode = "conflict"
	CodeAlreadyAssigned    ErrorCode = "already_assigned"
	CodeNoFreeGroup2       ErrorCode = "no_free_group2"
	CodePermissionDenied   ErrorCode = "permission_denied"
	CodeInternal           ErrorCode = "internal"
)

// DomainError is a typed business failure. Two domain errors match under
// errors.Is when their codes are equal, so the sentinels below can be used
// to test an error's kind regardless of its message.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	ErrInvalidArgument    = &DomainError{Code: CodeInvalidArgument}
	ErrNotFound           = &DomainError{Code: CodeNotFound}
	ErrFailedPrecondition = &DomainError{Code: CodeFailedPrecondition}
	ErrRoomFull           = &DomainError{Code: CodeRoomFull}
	ErrConflict           = &DomainError{Code: CodeConflict}
	ErrAlreadyAssigned    = &DomainError{Code: CodeAlreadyAssigned}
	ErrNoFreeGroup2       = &DomainError{Code: CodeNoFreeGroup2}
	ErrPermissionDenied   = &DomainError{Code: CodePermissionDenied}
)

// ErrInvariantViolated is returned by CheckInvariants. It is not a domain
// failure: a violation means a mutation is broken and must never commit.
var ErrInvariantViolated = errors.New("roster invariant violated")

// NewError builds a DomainError with a formatted message.
func NewError(code ErrorCode, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsDomainError reports whether err carries a DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// Code maps an error to its code. nil maps to "" and any non-domain error
// maps to internal.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
