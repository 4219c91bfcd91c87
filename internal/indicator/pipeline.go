package indicator

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-quant/volregime/internal/types"
	"github.com/meridian-quant/volregime/pkg/errors"
)

// TradingDaysPerYear is the annualization basis for daily volatility.
const TradingDaysPerYear = 252

// PipelineConfig holds the window lengths of the derived indicators.
type PipelineConfig struct {
	// VolatilityWindow is the trailing window for the rolling volatility
	// of daily returns.
	VolatilityWindow int `yaml:"volatility_window" json:"volatility_window" validate:"gt=1"`
	// DeviationWindow is the trailing window for the standard deviation of
	// price deviation.
	DeviationWindow int `yaml:"deviation_window" json:"deviation_window" validate:"gt=1"`
	// EMAPeriod is the span of the exponential moving average.
	EMAPeriod int `yaml:"ema_period" json:"ema_period" validate:"gt=0"`
	// RSIPeriod is the trailing window of the relative strength index.
	RSIPeriod int `yaml:"rsi_period" json:"rsi_period" validate:"gt=0"`
	// BandWidth is the number of volatility units between the EMA and each band.
	BandWidth float64 `yaml:"band_width" json:"band_width" validate:"gt=0"`
}

// DefaultPipelineConfig returns the canonical window set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		VolatilityWindow: 20,
		DeviationWindow:  20,
		EMAPeriod:        20,
		RSIPeriod:        14,
		BandWidth:        2.0,
	}
}

// WarmupBars is the number of leading bars on which at least one derived
// field is still undefined.
func (c PipelineConfig) WarmupBars() int {
	warmup := c.VolatilityWindow
	if c.DeviationWindow > warmup {
		warmup = c.DeviationWindow
	}

	if c.RSIPeriod > warmup {
		warmup = c.RSIPeriod
	}

	return warmup
}

// Pipeline derives the enriched bar series the simulator consumes. It is a
// pure batch transform: output depends only on the input sequence.
type Pipeline struct {
	config PipelineConfig
}

// NewPipeline creates a pipeline after validating the config.
func NewPipeline(config PipelineConfig) (*Pipeline, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid pipeline config", err)
	}

	return &Pipeline{config: config}, nil
}

// Compute derives all indicator fields for the given bar series and drops
// the leading rows where any field is still undefined. The usable output
// begins once every trailing window is populated; an empty input yields an
// empty output without error.
func (p *Pipeline) Compute(bars []types.Bar) []types.EnrichedBar {
	if len(bars) == 0 {
		return []types.EnrichedBar{}
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	returns := dailyReturns(closes)

	volatility := rollingStd(returns, p.config.VolatilityWindow)
	for i, v := range volatility {
		if !math.IsNaN(v) {
			volatility[i] = v * math.Sqrt(TradingDaysPerYear)
		}
	}

	emaValues := ema(closes, p.config.EMAPeriod)
	volPercentile := expandingRank(volatility)
	rsiValues := rsi(closes, p.config.RSIPeriod)

	deviation := make([]float64, len(bars))
	for i := range bars {
		deviation[i] = (closes[i] - emaValues[i]) / emaValues[i]
	}

	deviationStd := rollingStd(deviation, p.config.DeviationWindow)

	enriched := make([]types.EnrichedBar, 0, len(bars))

	for i, bar := range bars {
		row := types.EnrichedBar{
			Bar:            bar,
			Return:         returns[i],
			Volatility:     volatility[i],
			EMA:            emaValues[i],
			VolPercentile:  volPercentile[i],
			UpperBand:      emaValues[i] + p.config.BandWidth*volatility[i],
			LowerBand:      emaValues[i] - p.config.BandWidth*volatility[i],
			PriceDeviation: deviation[i],
			DeviationStd:   deviationStd[i],
			RSI:            rsiValues[i],
		}

		if rowDefined(row) {
			enriched = append(enriched, row)
		}
	}

	return enriched
}

// dailyReturns is the simple one-day percent change of close, undefined at
// the first bar.
func dailyReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	out[0] = math.NaN()

	for i := 1; i < len(closes); i++ {
		out[i] = closes[i]/closes[i-1] - 1
	}

	return out
}

func rowDefined(row types.EnrichedBar) bool {
	for _, v := range []float64{
		row.Return, row.Volatility, row.EMA, row.VolPercentile,
		row.UpperBand, row.LowerBand, row.PriceDeviation, row.DeviationStd, row.RSI,
	} {
		if math.IsNaN(v) {
			return false
		}
	}

	return true
}
