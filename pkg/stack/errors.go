package stack

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klothoplatform/spa-stack/pkg/construct"
)

type (
	// MissingValueError is returned when a required configuration value is empty.
	MissingValueError struct {
		Unit  string
		Field string
	}

	// MissingPathError is returned when a required local file or directory does not exist.
	MissingPathError struct {
		Unit  string
		Field string
		Path  string
		Cause error
	}

	// MissingReferenceError is returned when a unit is composed without a resource it depends on.
	MissingReferenceError struct {
		Unit  string
		Field string
	}
)

func (e MissingValueError) Error() string {
	return fmt.Sprintf("%s: a valid %s must be provided", e.Unit, e.Field)
}

func (e MissingPathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: a path to the %s must be provided", e.Unit, e.Field)
	}
	return fmt.Sprintf("%s: %s %q does not exist", e.Unit, e.Field, e.Path)
}

func (e MissingPathError) Unwrap() error {
	return e.Cause
}

func (e MissingReferenceError) Error() string {
	return fmt.Sprintf("%s: the %s must be provided", e.Unit, e.Field)
}

// IsConfigurationError reports whether err (or any error it wraps) is one of the composition-time
// configuration errors. These are never retryable: the input must be fixed.
func IsConfigurationError(err error) bool {
	var (
		missingValue MissingValueError
		missingPath  MissingPathError
		missingRef   MissingReferenceError
	)
	return errors.As(err, &missingValue) || errors.As(err, &missingPath) || errors.As(err, &missingRef)
}

// RequireValue rejects empty and whitespace-only values.
func RequireValue(unit, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return MissingValueError{Unit: unit, Field: field}
	}
	return nil
}

func RequirePath(unit, field, path string) error {
	if path == "" {
		return MissingPathError{Unit: unit, Field: field}
	}
	if _, err := os.Stat(path); err != nil {
		return MissingPathError{Unit: unit, Field: field, Path: path, Cause: err}
	}
	return nil
}

func RequireReference(unit, field string, id construct.ResourceId) error {
	if id.IsZero() {
		return MissingReferenceError{Unit: unit, Field: field}
	}
	return nil
}
