package engine

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/meridian-quant/volregime/internal/indicator"
	"github.com/meridian-quant/volregime/pkg/errors"
)

// StrategyConfig holds every tunable constant of the volatility-regime
// mean-reversion rule. Defaults are the canonical parameter set; the
// historical variants (1.5x entry threshold, no RSI gate) are reachable by
// config alone.
type StrategyConfig struct {
	indicator.PipelineConfig `yaml:",inline"`

	// RegimePercentile gates entries on the volatility regime: entries are
	// only considered while the expanding volatility percentile exceeds it.
	RegimePercentile float64 `yaml:"regime_percentile" json:"regime_percentile" jsonschema:"minimum=0,maximum=1" validate:"gt=0,lt=1"`
	// EntryDeviationMultiplier is the deviation-std multiple price must
	// stretch beyond before an entry is considered.
	EntryDeviationMultiplier float64 `yaml:"entry_deviation_multiplier" json:"entry_deviation_multiplier" validate:"gt=0"`
	// ExitDeviationMultiplier is the deviation-std multiple at which the
	// mean-reversion exit fires (half the entry side by default).
	ExitDeviationMultiplier float64 `yaml:"exit_deviation_multiplier" json:"exit_deviation_multiplier" validate:"gte=0"`
	// StopLossMultiplier is the adverse deviation-std multiple that stops
	// the position out.
	StopLossMultiplier float64 `yaml:"stop_loss_multiplier" json:"stop_loss_multiplier" validate:"gt=0"`
	// RSIOversold and RSIOverbought gate long and short entries.
	RSIOversold   float64 `yaml:"rsi_oversold" json:"rsi_oversold" validate:"gte=0,lte=100"`
	RSIOverbought float64 `yaml:"rsi_overbought" json:"rsi_overbought" validate:"gte=0,lte=100"`
	// RSINeutral is the momentum-exhaustion exit line.
	RSINeutral float64 `yaml:"rsi_neutral" json:"rsi_neutral" validate:"gte=0,lte=100"`
	// MaxHoldingDays is the calendar-day time stop.
	MaxHoldingDays int `yaml:"max_holding_days" json:"max_holding_days" validate:"gt=0"`
	// RiskFreeRate is the annual risk-free rate used for the Sharpe ratio.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0"`
}

// DefaultStrategyConfig returns the canonical parameter set.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		PipelineConfig:           indicator.DefaultPipelineConfig(),
		RegimePercentile:         0.7,
		EntryDeviationMultiplier: 1.2,
		ExitDeviationMultiplier:  0.5,
		StopLossMultiplier:       1.8,
		RSIOversold:              35,
		RSIOverbought:            65,
		RSINeutral:               50,
		MaxHoldingDays:           7,
		RiskFreeRate:             0.02,
	}
}

// Validate checks the strategy config against its validation tags.
func (c *StrategyConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	return nil
}

// BacktestEngineV1Config is the engine configuration loaded from YAML.
type BacktestEngineV1Config struct {
	// Version is the config schema version, checked against the engine build.
	Version        string                     `yaml:"version" json:"version" jsonschema:"title=Config Version"`
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Strategy       StrategyConfig             `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy Parameters"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Absent strategy fields fall back to the canonical defaults; absent times
// stay None.
func (c *BacktestEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		Version        string          `yaml:"version"`
		InitialCapital float64         `yaml:"initial_capital"`
		StartTime      *time.Time      `yaml:"start_time"`
		EndTime        *time.Time      `yaml:"end_time"`
		Strategy       *StrategyConfig `yaml:"strategy"`
	}

	// Seed the strategy with defaults so a partial strategy section only
	// overrides the fields it names.
	strategy := DefaultStrategyConfig()

	config := Config{
		Version:        "",
		InitialCapital: 0,
		StartTime:      nil,
		EndTime:        nil,
		Strategy:       &strategy,
	}
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.Version = config.Version
	c.InitialCapital = config.InitialCapital

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	c.Strategy = strategy

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config.
func (c *BacktestEngineV1Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
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

// EmptyConfig returns a BacktestEngineV1Config with default values.
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		Version:        "",
		InitialCapital: 0,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		Strategy:       DefaultStrategyConfig(),
	}
}
