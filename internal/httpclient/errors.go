package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nulzo/translation-router/internal/translate"
)

// UpstreamError represents an error returned by an upstream service
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
	Header     http.Header
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}

// TransportError is a request that never produced a response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is a 2xx response whose body could not be decoded.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MessageFunc extracts a human readable message from an error body.
type MessageFunc func(body []byte) string

// Classify converts a SendRequest error into a *translate.ProviderError.
// message may be nil, in which case the raw body is used.
func Classify(provider string, err error, message MessageFunc) error {
	if err == nil {
		return nil
	}

	var upstream *UpstreamError
	var transport *TransportError
	var decode *DecodeError

	switch {
	case errors.As(err, &upstream):
		msg := strings.TrimSpace(string(upstream.Body))
		if message != nil {
			if m := message(upstream.Body); m != "" {
				msg = m
			}
		}
		pe := &translate.ProviderError{
			Provider:   provider,
			Kind:       KindForStatus(upstream.StatusCode, msg),
			StatusCode: upstream.StatusCode,
			Message:    truncate(msg, 300),
			Err:        err,
		}
		if pe.Kind == translate.KindRateLimited || upstream.StatusCode == http.StatusServiceUnavailable {
			pe.RetryDelay = ParseRetryAfter(upstream.Header.Get("Retry-After"), time.Now())
		}
		return pe
	case errors.As(err, &decode):
		return &translate.ProviderError{Provider: provider, Kind: translate.KindMalformedResponse, Message: decode.Err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &translate.ProviderError{Provider: provider, Kind: translate.KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &transport):
		return &translate.ProviderError{Provider: provider, Kind: translate.KindNetwork, Message: transport.Err.Error(), Err: err}
	default:
		return err
	}
}

// KindForStatus maps an HTTP status, and for some statuses the error
// message, to an error kind.
func KindForStatus(status int, message string) translate.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if looksLikeQuota(message) {
			return translate.KindQuotaExceeded
		}
		return translate.KindAuthentication
	case status == 456 || status == http.StatusPaymentRequired:
		// DeepL answers 456 once the character quota is used up
		return translate.KindQuotaExceeded
	case status == http.StatusTooManyRequests:
		if looksLikeQuota(message) {
			return translate.KindQuotaExceeded
		}
		return translate.KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return translate.KindTimeout
	case status >= 500:
		return translate.KindServer
	case status >= 400:
		return translate.KindMalformedRequest
	default:
		return translate.KindMalformedResponse
	}
}

func looksLikeQuota(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "quota") || strings.Contains(m, "insufficient_quota") || strings.Contains(m, "billing")
}

// ParseRetryAfter reads a Retry-After header given either as seconds or as
// an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
