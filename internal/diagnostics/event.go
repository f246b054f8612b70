// Package diagnostics records what the router did for each request: one
// Event per provider that was tried or skipped.
package diagnostics

import (
	"time"

	"github.com/nulzo/translation-router/internal/translate"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// Event describes one provider attempt within a translation request.
type Event struct {
	RequestID      string
	Provider       string
	Tier           int
	// Attempt is the 1-based position of the provider in the candidate order.
	Attempt        int
	Outcome        Outcome
	Err            error
	Elapsed        time.Duration
	Keys           int
	Chunks         int
	SourceLanguage string
	TargetLanguage string
	At             time.Time
}

// ErrorKind returns the provider error kind, if any.
func (e Event) ErrorKind() string {
	if e.Err == nil {
		return ""
	}
	if k := translate.KindOf(e.Err); k != "" {
		return string(k)
	}
	return "unknown"
}

// Recorder receives router events. Implementations must be safe for
// concurrent use and must not block the caller for long.
type Recorder interface {
	Record(e Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(Event) {}

// Multi fans events out to several recorders.
type Multi []Recorder

func (m Multi) Record(e Event) {
	for _, r := range m {
		r.Record(e)
	}
}
