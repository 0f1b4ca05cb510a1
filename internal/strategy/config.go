package strategy

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/quantmill/meanrev/pkg/errors"
)

// Config holds every threshold of the RSI + mean-reversion rule. All fields
// have documented defaults and are validated before a run; the loosely-typed
// parameter dictionaries of early prototypes are deliberately gone.
type Config struct {
	// RSIPeriod is the lookback for the RSI calculation.
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period" jsonschema:"title=RSI Period,description=Lookback period for the RSI calculation,default=14" validate:"required,gt=0"`
	// MeanWindow is the rolling window for the mean-reversion z-score.
	MeanWindow int `yaml:"mean_window" json:"mean_window" jsonschema:"title=Mean Window,description=Rolling window for the mean-reversion z-score,default=20" validate:"required,gt=1"`
	// Oversold is the RSI level below which a bar counts as oversold.
	Oversold float64 `yaml:"oversold" json:"oversold" jsonschema:"title=Oversold Threshold,description=RSI level below which a bar counts as oversold,default=30" validate:"required,gt=0,lt=100"`
	// Overbought is the RSI level above which a bar counts as overbought.
	Overbought float64 `yaml:"overbought" json:"overbought" jsonschema:"title=Overbought Threshold,description=RSI level above which a bar counts as overbought,default=70" validate:"required,gt=0,lt=100,gtfield=Oversold"`
	// ZThreshold is the z-score magnitude required for entry and exit.
	ZThreshold float64 `yaml:"z_threshold" json:"z_threshold" jsonschema:"title=Z-Score Threshold,description=Standard deviations from the rolling mean required for a signal,default=2.0" validate:"required,gt=0"`
	// VolumeRatio is the minimum current volume as a fraction of the
	// trailing average volume.
	VolumeRatio float64 `yaml:"volume_ratio" json:"volume_ratio" jsonschema:"title=Volume Ratio,description=Minimum current volume as a fraction of average volume,default=0.8" validate:"gte=0"`
	// MinPrice filters out low-priced instruments.
	MinPrice float64 `yaml:"min_price" json:"min_price" jsonschema:"title=Minimum Price,description=Minimum price for an entry,default=5.0" validate:"gte=0"`
	// MaxPositionSize is the maximum position value as a fraction of capital.
	MaxPositionSize float64 `yaml:"max_position_size" json:"max_position_size" jsonschema:"title=Max Position Size,description=Maximum position value as a fraction of current capital,default=0.05" validate:"required,gt=0,lte=1"`
	// StopLossPct is the stop-loss distance below the entry price.
	StopLossPct float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Stop-loss distance as a fraction of the entry price,default=0.03" validate:"required,gt=0,lt=1"`
	// TakeProfitPct is the take-profit distance above the entry price.
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit,description=Take-profit distance as a fraction of the entry price,default=0.02" validate:"required,gt=0,lt=1"`
	// MaxPortfolioRisk caps the capital at risk per trade.
	MaxPortfolioRisk float64 `yaml:"max_portfolio_risk" json:"max_portfolio_risk" jsonschema:"title=Max Portfolio Risk,description=Maximum fraction of capital at risk per trade,default=0.15" validate:"required,gt=0,lte=1"`
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:        14,
		MeanWindow:       20,
		Oversold:         30,
		Overbought:       70,
		ZThreshold:       2.0,
		VolumeRatio:      0.8,
		MinPrice:         5.0,
		MaxPositionSize:  0.05,
		StopLossPct:      0.03,
		TakeProfitPct:    0.02,
		MaxPortfolioRisk: 0.15,
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the strategy Config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "strategy-config"
	schema.Description = "Thresholds for the RSI + mean-reversion trading rule"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the strategy Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
