// Package validation checks configuration values before a run starts:
// struct tags via go-playground/validator, plus a fluent collector for
// the semantic rules tags cannot express.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Limits on configured values. Variables so embedding tools can widen
// them for unusual family catalogs.
var (
	MaxParamNameLength = 100
	MaxFamilyRules     = 50
)

// ValidateStruct runs struct-tag validation on a tagged configuration
// value and reports every violated tag, not just the first.
func ValidateStruct(s any) error {
	if s == nil {
		return errors.New("value cannot be nil")
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	faults := make([]error, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		faults = append(faults, tagFault(e))
	}
	return errors.Join(faults...)
}

// tagFault renders one struct-tag violation in config-file terms.
func tagFault(e validator.FieldError) error {
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: value is required", e.Field())
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s], got %v", e.Field(), e.Param(), e.Value())
	case "gt":
		return fmt.Errorf("%s: must be greater than %s", e.Field(), e.Param())
	case "min":
		return fmt.Errorf("%s: needs at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Errorf("%s: allows at most %s", e.Field(), e.Param())
	default:
		return fmt.Errorf("%s: fails %q", e.Field(), e.Tag())
	}
}

// ValidateParamName validates a fitting parameter name from configuration.
// Names come from host family catalogs and may contain spaces, parentheses
// and non-ASCII characters, so only emptiness, length and control
// characters are checked.
func ValidateParamName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("parameter name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxParamNameLength {
		return fmt.Errorf("parameter name %q exceeds maximum length of %d characters", name, MaxParamNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("parameter name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateRuleCount validates the number of fitting rules in a table
func ValidateRuleCount(count int) error {
	if count < 1 {
		return errors.New("at least one fitting rule is required")
	}
	if count > MaxFamilyRules {
		return fmt.Errorf("rule table must not exceed %d rules, got %d", MaxFamilyRules, count)
	}
	return nil
}
