package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNoProvidersAvailable is returned when no enabled provider holds
	// usable credentials.
	ErrNoProvidersAvailable = errors.New("no translation provider available")
	// ErrMissingCredentials marks an enabled provider without an API key.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid translation request")
)

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindTimeout           ErrorKind = "timeout"
	KindRateLimited       ErrorKind = "rate_limited"
	KindServer            ErrorKind = "server_error"
	KindNetwork           ErrorKind = "network"
	KindAuthentication    ErrorKind = "authentication"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindMalformedRequest  ErrorKind = "malformed_request"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUnavailable       ErrorKind = "unavailable"
)

// Retryable reports whether another attempt against the same provider can
// succeed.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// ProviderError is the failure of one provider call.
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Message    string
	// RetryDelay is a server supplied wait, for example from Retry-After.
	RetryDelay time.Duration
	Err        error
}

// NewError builds a ProviderError with a formatted message.
func NewError(provider string, kind ErrorKind, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(e.Provider)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Retryable() bool {
	return e.Kind.Retryable()
}

func (e *ProviderError) RetryAfter() time.Duration {
	return e.RetryDelay
}

// IsRetryable reports whether err carries a retryable ProviderError.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// KindOf extracts the error kind, mapping bare context deadlines to timeouts.
// It returns "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return ""
}
