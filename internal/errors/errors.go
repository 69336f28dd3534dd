package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Kind is the closed set of failure categories every component reports.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
)

var (
	// ErrNotFound marks a validation failure caused by a missing record or index entry.
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidTransition marks an operation attempted in the wrong lifecycle state.
	ErrInvalidTransition = stderrors.New("invalid state transition")
)

// Error is the single error type callers branch on.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Status is the remote status code, only set for KindAPI.
	Status int   `json:"status,omitempty"`
	Err    error `json:"-"`
}

func (e *Error) Error() string {
	if e.Kind == KindAPI {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind: errors.Is(err, &Error{Kind: KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Auth(message string) *Error {
	return newError(KindAuth, message, nil)
}

func AuthWrap(message string, cause error) *Error {
	return newError(KindAuth, message, cause)
}

func Network(cause error) *Error {
	return newError(KindNetwork, "network unavailable, check your connection and try again", cause)
}

func API(status int, message string) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: message}
}

func Validation(message string) *Error {
	return newError(KindValidation, message, nil)
}

func ValidationWrap(message string, cause error) *Error {
	return newError(KindValidation, message, cause)
}

func NotFound(message string) *Error {
	return newError(KindValidation, message, ErrNotFound)
}

func InvalidTransition(message string) *Error {
	return newError(KindValidation, message, ErrInvalidTransition)
}

func Conflict(message string) *Error {
	return newError(KindConflict, message, nil)
}

// DecodeError reports a 2xx response whose body did not match the expected shape.
// It is a contract failure, not one of the recoverable kinds.
type DecodeError struct {
	Operation string
	Err       error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ===== KIND HELPERS =====

// KindOf returns the taxonomy kind of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	var ve ValidationErrors
	if stderrors.As(err, &ve) {
		return KindValidation
	}
	return ""
}

func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsNetwork(err error) bool    { return KindOf(err) == KindNetwork }
func IsAPI(err error) bool        { return KindOf(err) == KindAPI }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }

func IsNotFound(err error) bool {
	return IsValidation(err) && stderrors.Is(err, ErrNotFound)
}

func IsInvalidTransition(err error) bool {
	return stderrors.Is(err, ErrInvalidTransition)
}

// Classified reports whether err already carries a taxonomy kind.
func Classified(err error) bool {
	return KindOf(err) != ""
}

// ===== TRANSPORT MAPPING =====

// IsTransportFailure reports whether err means the remote side was unreachable:
// DNS failure, refused/reset connection or a timeout. Caller cancellation is not one.
func IsTransportFailure(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}

// FromTransport normalizes unreachability to KindNetwork and returns every
// other error unchanged.
func FromTransport(err error) error {
	if err == nil || Classified(err) {
		return err
	}
	if IsTransportFailure(err) {
		return Network(err)
	}
	return err
}
