package validation

import (
	"errors"
	"fmt"
)

// ConfigValidator collects the semantic faults of one configuration
// struct. Checks chain; Validate reports everything found, so a user
// fixing a config file sees the full list instead of one fault per
// attempt.
type ConfigValidator struct {
	subject string
	faults  []error
}

// NewConfigValidator starts a validation chain for the named struct.
func NewConfigValidator(subject string) *ConfigValidator {
	return &ConfigValidator{subject: subject}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) *ConfigValidator {
	cv.faults = append(cv.faults,
		fmt.Errorf("%s.%s: %s", cv.subject, field, fmt.Sprintf(format, args...)))
	return cv
}

// Required records a fault when a string field is empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		return cv.fail(field, "must not be empty")
	}
	return cv
}

// PositiveFloat records a fault when a float field is zero or negative.
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if value <= 0 {
		return cv.fail(field, "must be positive, got %g", value)
	}
	return cv
}

// OneOf records a fault when a string field is none of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed ...string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	return cv.fail(field, "must be one of %v, got %q", allowed, value)
}

// Custom records the fault returned by an arbitrary check, prefixed with
// the field it concerns.
func (cv *ConfigValidator) Custom(field string, check func() error) *ConfigValidator {
	if err := check(); err != nil {
		cv.faults = append(cv.faults, fmt.Errorf("%s.%s: %w", cv.subject, field, err))
	}
	return cv
}

// HasFaults reports whether any check has failed so far.
func (cv *ConfigValidator) HasFaults() bool {
	return len(cv.faults) > 0
}

// Validate combines every recorded fault into one error, nil when clean.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.faults...)
}

// DefaultOr returns fallback when value is the zero value of its type.
func DefaultOr[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
