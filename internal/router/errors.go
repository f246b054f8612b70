package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nulzo/translation-router/internal/translate"
)

// ErrAllProvidersFailed matches any *AllProvidersFailedError with errors.Is.
var ErrAllProvidersFailed = errors.New("all translation providers failed")

// AllProvidersFailedError is returned when no candidate could translate the
// request. Failures lists every provider in the order it was considered.
type AllProvidersFailedError struct {
	RequestID string
	Failures  []translate.Failure
}

func (e *AllProvidersFailedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("%s: %s", ErrAllProvidersFailed, strings.Join(parts, "; "))
}

func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Unwrap returns the primary cause, the error of the last provider called.
func (e *AllProvidersFailedError) Unwrap() error {
	return e.Last()
}

// Last is the error of the last provider that was actually called, or of
// the last skipped one when none was.
func (e *AllProvidersFailedError) Last() error {
	for i := len(e.Failures) - 1; i >= 0; i-- {
		if !e.Failures[i].Skipped {
			return e.Failures[i].Err
		}
	}
	if n := len(e.Failures); n > 0 {
		return e.Failures[n-1].Err
	}
	return nil
}

// Attempted returns the failures of providers that were called.
func (e *AllProvidersFailedError) Attempted() []translate.Failure {
	var out []translate.Failure
	for _, f := range e.Failures {
		if !f.Skipped {
			out = append(out, f)
		}
	}
	return out
}
