package translate

import (
	"fmt"
	"strings"
)

// AutoDetect lets the provider detect the source language.
const AutoDetect = "auto"

// Request is an ordered set of keyed source strings for one target language.
type Request struct {
	Keys           []string
	Texts          map[string]string
	SourceLanguage string
	TargetLanguage string
}

func NewRequest(target string) *Request {
	return &Request{
		Texts:          make(map[string]string),
		TargetLanguage: target,
	}
}

// Add sets the text for key. A repeated key keeps its first position.
func (r *Request) Add(key, text string) *Request {
	if r.Texts == nil {
		r.Texts = make(map[string]string)
	}
	if _, ok := r.Texts[key]; !ok {
		r.Keys = append(r.Keys, key)
	}
	r.Texts[key] = text
	return r
}

// From sets the source language.
func (r *Request) From(source string) *Request {
	r.SourceLanguage = source
	return r
}

func (r *Request) Len() int {
	return len(r.Keys)
}

// Ordered returns the source strings in key order.
func (r *Request) Ordered() []string {
	out := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		out[i] = r.Texts[k]
	}
	return out
}

// Validate checks that the request can be dispatched.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.TargetLanguage) == "" {
		return fmt.Errorf("%w: target language is required", ErrInvalidRequest)
	}
	if len(r.Texts) != len(r.Keys) {
		return fmt.Errorf("%w: %d keys but %d texts", ErrInvalidRequest, len(r.Keys), len(r.Texts))
	}
	for _, k := range r.Keys {
		if _, ok := r.Texts[k]; !ok {
			return fmt.Errorf("%w: key %q has no text", ErrInvalidRequest, k)
		}
	}
	return nil
}

// Failure is one entry of the fallback trail.
type Failure struct {
	Provider string
	Tier     int
	// Skipped is set for providers that were never called, for example
	// because they have no credentials.
	Skipped bool
	Err     error
}

func (f Failure) String() string {
	state := "failed"
	if f.Skipped {
		state = "skipped"
	}
	if f.Err == nil {
		return fmt.Sprintf("%s (tier %d) %s", f.Provider, f.Tier, state)
	}
	return fmt.Sprintf("%s (tier %d) %s: %v", f.Provider, f.Tier, state, f.Err)
}

// Result maps every requested key to its translation, in request order.
type Result struct {
	RequestID    string
	Keys         []string
	Translations map[string]string
	// Provider and Tier name the provider that produced the translations.
	Provider string
	Tier     int
	// Trail lists the providers skipped or failed before Provider succeeded.
	Trail []Failure
}

func (r *Result) Get(key string) (string, bool) {
	v, ok := r.Translations[key]
	return v, ok
}

// Ordered returns the translations in key order.
func (r *Result) Ordered() []string {
	out := make([]string, len(r.Keys))
	for i, k := range r.Keys {
		out[i] = r.Translations[k]
	}
	return out
}
