package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind categorizes a single-attempt failure by cause, per spec.md
// section 4.C's "status-coded transport error, cancellation, parse
// error" categories.
type ErrKind string

const (
	ErrKindHTTPStatus ErrKind = "http_status"
	ErrKindNetwork    ErrKind = "network"
	ErrKindTimeout    ErrKind = "timeout"
	ErrKindCancel     ErrKind = "cancel"
	ErrKindParse      ErrKind = "parse"
)

// CallError is the error type every Adapter implementation is expected
// to return from a failed Complete/CompleteStream attempt.
type CallError struct {
	Kind       ErrKind
	StatusCode int // only meaningful when Kind == ErrKindHTTPStatus
	Err        error
}

func (e *CallError) Error() string {
	if e.Kind == ErrKindHTTPStatus {
		return fmt.Sprintf("provider: http %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider: %s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// NewHTTPStatusError wraps an upstream HTTP error response.
func NewHTTPStatusError(status int, err error) *CallError {
	return &CallError{Kind: ErrKindHTTPStatus, StatusCode: status, Err: err}
}

// NewNetworkError wraps a socket/DNS/TLS failure.
func NewNetworkError(err error) *CallError {
	return &CallError{Kind: ErrKindNetwork, Err: err}
}

// NewTimeoutError wraps a deadline-expiry failure (distinct from
// caller-initiated cancellation).
func NewTimeoutError(err error) *CallError {
	return &CallError{Kind: ErrKindTimeout, Err: err}
}

// NewCancelError wraps caller-initiated cancellation (connection closed).
func NewCancelError(err error) *CallError {
	return &CallError{Kind: ErrKindCancel, Err: err}
}

// NewParseError wraps a malformed-upstream-response failure.
func NewParseError(err error) *CallError {
	return &CallError{Kind: ErrKindParse, Err: err}
}

// ClassifyContextError inspects ctx.Err() and returns the appropriate
// CallError: DeadlineExceeded becomes a transient timeout, Canceled
// becomes a terminal, not-retried cancellation.
func ClassifyContextError(ctx context.Context) *CallError {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewTimeoutError(ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return NewCancelError(ctx.Err())
	default:
		return NewNetworkError(ctx.Err())
	}
}

// IsTransient implements the classification table from spec.md section
// 4.B: 429/500/502/503/504 and network/timeout failures are transient;
// any other HTTP status, cancellation, and parse errors are terminal.
func IsTransient(err error) bool {
	var ce *CallError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case ErrKindNetwork, ErrKindTimeout:
		return true
	case ErrKindHTTPStatus:
		switch ce.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		default:
			return false
		}
	case ErrKindCancel, ErrKindParse:
		return false
	default:
		return false
	}
}

// KindOf returns the string form of err's ErrKind when err is (or wraps)
// a *CallError, or "" when err is nil or of an unrecognized type. Used to
// tag attempt traces with a classification without every caller needing
// its own errors.As boilerplate.
func KindOf(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return string(ce.Kind)
	}
	return ""
}

// IsClientCancel reports whether err represents caller-initiated
// cancellation, which the AttemptLoop must treat as neither transient
// nor a surfaced TerminalFailure: all downstream work is abandoned
// silently per spec.md section 7.
func IsClientCancel(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind == ErrKindCancel
	}
	return errors.Is(err, context.Canceled)
}
