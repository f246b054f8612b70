package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrNoProvidersEnabled is wrapped by the ConfigError returned when every
// provider is disabled.
var ErrNoProvidersEnabled = errors.New("no translation provider is enabled")

// ConfigError reports an invalid or empty provider set. It is fatal and never
// retried.
type ConfigError struct {
	Provider string
	Field    string
	Reason   string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Provider != "" {
		b.WriteString(": provider ")
		b.WriteString(e.Provider)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var validate = validator.New()

// Validate checks every provider section and the router switches. All
// problems are reported, joined with errors.Join; each is a *ConfigError.
func (r RouterConfig) Validate() error {
	var errs []error

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ConfigError{Reason: err.Error(), Err: err}
		}
		for _, fe := range verrs {
			errs = append(errs, fieldError(r, fe))
		}
	}

	seen := make(map[string]bool, len(r.Providers))
	enabled := 0
	for _, p := range r.Providers {
		key := strings.ToLower(p.Name)
		if key != "" && seen[key] {
			errs = append(errs, &ConfigError{Provider: p.Name, Reason: "duplicate provider name"})
		}
		seen[key] = true
		if p.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		errs = append(errs, &ConfigError{Reason: ErrNoProvidersEnabled.Error(), Err: ErrNoProvidersEnabled})
	}

	return errors.Join(errs...)
}

// fieldError turns a validator failure into a ConfigError naming the provider.
func fieldError(r RouterConfig, fe validator.FieldError) *ConfigError {
	ce := &ConfigError{Field: snakeCase(fe.Field()), Err: fe}

	// Namespace looks like RouterConfig.Providers[2].Priority
	ns := fe.Namespace()
	if i := strings.Index(ns, "Providers["); i != -1 {
		var idx int
		if _, err := fmt.Sscanf(ns[i:], "Providers[%d]", &idx); err == nil && idx < len(r.Providers) {
			ce.Provider = r.Providers[idx].Name
			if ce.Provider == "" {
				ce.Provider = fmt.Sprintf("#%d", idx)
			}
		}
	}

	switch fe.Tag() {
	case "required":
		ce.Reason = "is required"
	case "gte":
		ce.Reason = fmt.Sprintf("must be >= %s", fe.Param())
	case "gt":
		ce.Reason = fmt.Sprintf("must be > %s", fe.Param())
	case "gtefield":
		ce.Reason = fmt.Sprintf("must be >= %s", snakeCase(fe.Param()))
	default:
		ce.Reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return ce
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
