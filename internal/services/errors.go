package services

import (
	"errors"
	"fmt"
)

// ConfigError means a required credential is missing. It is raised before any
// outbound call and is never retried.
type ConfigError struct{ Service string }

func (e *ConfigError) Error() string { return fmt.Sprintf("%s API key not set", e.Service) }

// UpstreamError wraps a transport failure or non-2xx reply from an external API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
