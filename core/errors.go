package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failure for retry and escalation decisions.
type ErrorKind int

const (
	// KindConfiguration marks invalid or missing setup detected before or at
	// Start. Never retried.
	KindConfiguration ErrorKind = iota
	// KindTransient marks network or server-side failures that are safe to
	// retry with backoff.
	KindTransient
	// KindRateLimited marks an explicit backoff signal (HTTP 429). Retried,
	// honoring a provider-supplied retry-after hint when present.
	KindRateLimited
	// KindPermanent marks client-side auth/validation failures. Never
	// retried; triggers immediate fallback or failure.
	KindPermanent
	// KindCancelled marks an operation abandoned because of Stop. Not a
	// provider failure.
	KindCancelled
)

// String returns the classification name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindPermanent:
		return "permanent"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the structured, classified error used across provider clients and
// the orchestrator. The observer always receives one of these for a failed
// turn or fallback switch, never a bare string.
type Error struct {
	Kind       ErrorKind
	Provider   string
	Message    string
	HTTPStatus int
	RetryAfter time.Duration // rate-limit hint; zero when not supplied
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := e.Kind.String()
	if e.Provider != "" {
		prefix = e.Provider + " " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a classified error with the given kind and message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorf creates a classified error with a formatted message.
func NewErrorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithProvider records the provider the failure originated from.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithHTTPStatus records the HTTP status behind the classification.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryAfter records a provider-supplied backoff hint.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// WithCause attaches the wrapped cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ClassifyHTTPStatus maps an HTTP response status to an ErrorKind: 429 is
// rate limited, other 4xx are permanent, everything else (5xx, unexpected
// codes) is transient.
func ClassifyHTTPStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 400 && status < 500:
		return KindPermanent
	default:
		return KindTransient
	}
}

// KindOf extracts the classification from err, walking wrapped causes.
// Context cancellation maps to KindCancelled, a deadline to KindTransient
// (timeouts are safe to retry), anything unclassified to KindTransient so
// unknown failures stay retryable rather than fatal.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindTransient
}

// IsRetryable reports whether err may be retried with backoff.
func IsRetryable(err error) bool {
	k := KindOf(err)
	return k == KindTransient || k == KindRateLimited
}

// RetryAfterOf extracts a provider-supplied backoff hint, or zero.
func RetryAfterOf(err error) time.Duration {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.RetryAfter
	}
	return 0
}
