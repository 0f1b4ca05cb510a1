package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/internal/strategy"
	"github.com/quantmill/meanrev/internal/version"
	"github.com/quantmill/meanrev/pkg/errors"
)

type BacktestEngineV1Config struct {
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Instrument symbol recorded on trades and the report"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy       strategy.Config            `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Thresholds for the mean-reversion rule"`
	// MinEngineVersion is the minimum engine version the config requires.
	// Empty means any version is accepted.
	MinEngineVersion string `yaml:"min_engine_version" json:"min_engine_version" jsonschema:"title=Minimum Engine Version,description=Minimum engine version required by this config"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Omitted strategy thresholds fall back to their defaults.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital   float64          `yaml:"initial_capital"`
		Symbol           string           `yaml:"symbol"`
		StartTime        *time.Time       `yaml:"start_time"`
		EndTime          *time.Time       `yaml:"end_time"`
		Strategy         *strategy.Config `yaml:"strategy"`
		MinEngineVersion string           `yaml:"min_engine_version"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.Symbol = config.Symbol
	c.MinEngineVersion = config.MinEngineVersion

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.Strategy != nil {
		c.Strategy = *config.Strategy
	} else {
		c.Strategy = strategy.DefaultConfig()
	}

	return nil
}

// Validate checks the run parameters and the strategy thresholds, and
// verifies the engine version satisfies MinEngineVersion.
func (c *BacktestEngineV1Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "initial capital must be positive, got %f", c.InitialCapital)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time is before start_time")
	}

	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	if c.MinEngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.MinEngineVersion); err != nil {
			return err
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a config suitable for tests.
func TestConfig(initialCapital float64, symbol string) BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   initialCapital,
		Symbol:           symbol,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Strategy:         strategy.DefaultConfig(),
		MinEngineVersion: "",
	}
}

// EmptyConfig returns a BacktestEngineV1Config with default values.
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital:   0,
		Symbol:           "",
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Strategy:         strategy.DefaultConfig(),
		MinEngineVersion: "",
	}
}
