package service

import "fmt"

// ValidationError is a bad request detected before any upstream call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConfigError means the provider credentials needed for a request are missing.
type ConfigError struct {
	Provider string
}

func (e *ConfigError) Error() string {
	return e.Provider + " is not configured"
}
