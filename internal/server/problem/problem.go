// Package problem renders API errors as RFC 9457 problem details.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]any `json:"-"`

	// Log is only written to the server log, never to the client.
	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// MarshalJSON flattens Extensions into the top-level object.
func (p *Problem) MarshalJSON() ([]byte, error) {
	type alias Problem

	data := make(map[string]any, len(p.Extensions)+5)
	for k, v := range p.Extensions {
		data[k] = v
	}

	std, err := json.Marshal(alias(*p))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(std, &data); err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

type Option func(*Problem)

func New(status int, title, detail string, opts ...Option) *Problem {
	p := &Problem{
		Type:       "about:blank",
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]any),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func WithExtension(key string, value any) Option {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

func WithLog(err error) Option {
	return func(p *Problem) {
		p.Log = err
	}
}

func WithType(uri string) Option {
	return func(p *Problem) {
		p.Type = uri
	}
}

func WithInstance(instance string) Option {
	return func(p *Problem) {
		p.Instance = instance
	}
}

// Validation reports field errors under the "errors" extension.
func Validation(fields map[string]string) *Problem {
	return New(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithType("urn:translation-router:problem:validation"),
		WithExtension("errors", fields),
	)
}

func BadRequest(detail string, opts ...Option) *Problem {
	return New(http.StatusBadRequest, "Bad Request", detail, opts...)
}

func NotFound(detail string, opts ...Option) *Problem {
	return New(http.StatusNotFound, "Not Found", detail, opts...)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return New(http.StatusTooManyRequests, "Too Many Requests", detail, opts...)
}

func BadGateway(detail string, opts ...Option) *Problem {
	return New(http.StatusBadGateway, "Bad Gateway", detail, opts...)
}

func ServiceUnavailable(detail string, opts ...Option) *Problem {
	return New(http.StatusServiceUnavailable, "Service Unavailable", detail, opts...)
}

func Internal(detail string, opts ...Option) *Problem {
	return New(http.StatusInternalServerError, "Internal Server Error", detail, opts...)
}
