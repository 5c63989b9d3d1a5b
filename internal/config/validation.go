package config

import (
	"fmt"
	"strings"

	"github.com/giantswarm/lantern/internal/api"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...any) {
	var val any
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateServer checks a single server descriptor.
func ValidateServer(s api.CapabilityServer) error {
	var errs ValidationErrors
	prefix := "server"
	if s.Name != "" {
		prefix = fmt.Sprintf("servers[%s]", s.Name)
	}

	if strings.TrimSpace(s.Name) == "" {
		errs.Add("name", "is required for server")
	}

	if !s.Transport.Valid() {
		kinds := make([]string, 0, len(api.TransportKinds))
		for _, k := range api.TransportKinds {
			kinds = append(kinds, string(k))
		}
		errs.Add(prefix+".transport", fmt.Sprintf("must be one of: %s", strings.Join(kinds, ", ")), s.Transport)
	}

	switch {
	case s.Transport == api.TransportStdio && strings.TrimSpace(s.Command) == "":
		errs.Add(prefix+".command", "is required for stdio transport")
	case s.Transport.IsRemote() && strings.TrimSpace(s.URL) == "":
		errs.Add(prefix+".url", fmt.Sprintf("is required for %s transport", s.Transport))
	}

	if len(s.Filter.Allow) > 0 && len(s.Filter.Block) > 0 {
		errs.Add(prefix+".filter", "allow and block are mutually exclusive")
	}

	if s.Timeout < 0 {
		errs.Add(prefix+".timeout", "must not be negative", s.Timeout)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Validate checks the whole configuration, including server name uniqueness.
func Validate(cfg LanternConfig) error {
	var errs ValidationErrors

	switch cfg.Store {
	case "", StoreFile, StoreSQLite:
	default:
		errs.Add("store", "must be one of: file, sqlite", cfg.Store)
	}

	if cfg.DefaultTimeout < 0 {
		errs.Add("defaultTimeout", "must not be negative", cfg.DefaultTimeout)
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for _, s := range cfg.Servers {
		if err := ValidateServer(s); err != nil {
			var serverErrs ValidationErrors
			if ve, ok := err.(ValidationErrors); ok {
				serverErrs = ve
			}
			errs = append(errs, serverErrs...)
			continue
		}
		if seen[s.Name] {
			errs.Add(fmt.Sprintf("servers[%s]", s.Name), "duplicate server name")
		}
		seen[s.Name] = true
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
