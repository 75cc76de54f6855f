package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mheijden/fitfix/pkg/classify"
	"github.com/mheijden/fitfix/pkg/rules"
	"github.com/mheijden/fitfix/pkg/validation"
)

// Config is the full runtime configuration of an audit run: the rule
// table that classifies segments and fittings, the classifier policy, and
// the parameter names the planner writes. Everything has a production
// default so an empty file is a valid configuration.
type Config struct {
	Rules      rules.Table `yaml:"rules"`
	Classifier Classifier  `yaml:"classifier"`
	Params     Params      `yaml:"params"`
	LogLevel   string      `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Classifier selects how the eccentricity switch is decided.
type Classifier struct {
	Policy classify.Policy `yaml:"policy" validate:"required,oneof=refined coarse"`
}

// Params maps the planner's roles to the parameter names of the fitting
// family catalog in use. The Eccentric parameter is protected: the applier
// never clears it, whatever a plan says.
type Params struct {
	TeeShortSmallest   string `yaml:"tee_short_smallest" validate:"required"`
	TeeShortLargest    string `yaml:"tee_short_largest" validate:"required"`
	Eccentric          string `yaml:"eccentric" validate:"required"`
	SwitchEccentricity string `yaml:"switch_eccentricity" validate:"required"`
	ElbowDouble45      string `yaml:"elbow_double_45" validate:"required"`
	ElbowInsertPipe    string `yaml:"elbow_insert_pipe" validate:"required"`
}

// Default returns the configuration matching the NLRS family catalog.
func Default() *Config {
	return &Config{
		Rules: rules.Default(),
		Classifier: Classifier{
			Policy: classify.PolicyRefined,
		},
		Params: Params{
			TeeShortSmallest:   "kort_verloop (kleinste)",
			TeeShortLargest:    "kort_verloop (grootste)",
			Eccentric:          "reducer_eccentric",
			SwitchEccentricity: "switch_excentriciteit",
			ElbowDouble45:      "2x45°",
			ElbowInsertPipe:    "buis_invogen",
		},
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file over the defaults. Keys absent
// from the file keep their default values; a present rules block replaces
// the default table entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = validation.DefaultOr(cfg.LogLevel, "info")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks struct tags first, then the semantic constraints the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("Config")
	cv.Custom("Rules", c.Rules.Validate)
	cv.PositiveFloat("Rules.Main.MinDiameterMM", c.Rules.Main.MinDiameterMM)
	cv.Custom("Classifier.Policy", func() error {
		if !c.Classifier.Policy.Valid() {
			return fmt.Errorf("unknown policy %q", c.Classifier.Policy)
		}
		return nil
	})

	names := []struct {
		field string
		value string
	}{
		{"Params.TeeShortSmallest", c.Params.TeeShortSmallest},
		{"Params.TeeShortLargest", c.Params.TeeShortLargest},
		{"Params.Eccentric", c.Params.Eccentric},
		{"Params.SwitchEccentricity", c.Params.SwitchEccentricity},
		{"Params.ElbowDouble45", c.Params.ElbowDouble45},
		{"Params.ElbowInsertPipe", c.Params.ElbowInsertPipe},
	}
	for _, n := range names {
		cv.Custom(n.field, func() error { return validation.ValidateParamName(n.value) })
	}

	cv.Custom("Rules.Fittings", func() error {
		return validation.ValidateRuleCount(len(c.Rules.Fittings))
	})

	return cv.Validate()
}
