package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigValidatorClean(t *testing.T) {
	cv := NewConfigValidator("Audit")
	cv.Required("Name", "tee-pass").
		PositiveFloat("Threshold", 160).
		OneOf("Policy", "refined", "refined", "coarse")

	if cv.HasFaults() {
		t.Errorf("Expected no faults, got %v", cv.Validate())
	}
	if err := cv.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestConfigValidatorRequired(t *testing.T) {
	cv := NewConfigValidator("Audit")
	cv.Required("Name", "")

	err := cv.Validate()
	if err == nil {
		t.Fatal("Expected a fault for an empty value")
	}
	if !strings.Contains(err.Error(), "Audit.Name") {
		t.Errorf("Fault should name the field, got: %v", err)
	}
}

func TestConfigValidatorPositiveFloat(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"Positive", 0.7, false},
		{"Zero", 0, true},
		{"Negative", -160, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("Audit")
			cv.PositiveFloat("Threshold", tt.value)
			if cv.HasFaults() != tt.want {
				t.Errorf("HasFaults() = %v, want %v", cv.HasFaults(), tt.want)
			}
		})
	}
}

func TestConfigValidatorOneOf(t *testing.T) {
	cv := NewConfigValidator("Audit")
	cv.OneOf("Policy", "guessing", "refined", "coarse")

	err := cv.Validate()
	if err == nil {
		t.Fatal("Expected a fault for an unknown value")
	}
	if !strings.Contains(err.Error(), "guessing") {
		t.Errorf("Fault should quote the offending value, got: %v", err)
	}
}

func TestConfigValidatorCustom(t *testing.T) {
	boom := errors.New("threshold out of band")

	cv := NewConfigValidator("Audit")
	cv.Custom("Threshold", func() error { return boom })
	cv.Custom("Name", func() error { return nil })

	err := cv.Validate()
	if !errors.Is(err, boom) {
		t.Errorf("Custom fault should be wrapped, got: %v", err)
	}
}

func TestConfigValidatorCollectsAllFaults(t *testing.T) {
	cv := NewConfigValidator("Audit")
	cv.Required("Name", "").
		PositiveFloat("Threshold", -1).
		OneOf("Policy", "x", "refined", "coarse")

	err := cv.Validate()
	if err == nil {
		t.Fatal("Expected faults")
	}
	for _, field := range []string{"Name", "Threshold", "Policy"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Combined fault should mention %s, got: %v", field, err)
		}
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "info"); got != "info" {
		t.Errorf("DefaultOr(\"\") = %q, want info", got)
	}
	if got := DefaultOr("debug", "info"); got != "debug" {
		t.Errorf("DefaultOr(debug) = %q, want debug", got)
	}
	if got := DefaultOr(0, 42); got != 42 {
		t.Errorf("DefaultOr(0) = %d, want 42", got)
	}
}
