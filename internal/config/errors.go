package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue indicates a setting has the wrong type or an
	// unsupported value.
	ErrInvalidValue = errors.New("invalid configuration value")

	// ErrClosed indicates the configuration was closed.
	ErrClosed = errors.New("configuration closed")
)

// ValidationError describes an invalid setting.
type ValidationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s = %v: %s", e.Key, e.Value, e.Reason)
}

// Unwrap returns ErrInvalidValue.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidValue
}
