package types

// EnrichedBar is a Bar plus the derived indicator fields the strategy
// consumes. The pipeline only emits rows where every derived field is
// defined, so downstream code never sees a NaN.
type EnrichedBar struct {
	Bar

	// Return is the simple one-day percent change of close.
	Return float64 `csv:"return"`
	// Volatility is the rolling standard deviation of Return, annualized.
	Volatility float64 `csv:"volatility"`
	// EMA is the exponential moving average of close.
	EMA float64 `csv:"ema"`
	// VolPercentile is the expanding-window percentile rank of Volatility
	// among all volatility values observed so far, in [0, 1].
	VolPercentile float64 `csv:"vol_percentile"`
	// UpperBand and LowerBand are EMA +/- 2*Volatility.
	UpperBand float64 `csv:"upper_band"`
	LowerBand float64 `csv:"lower_band"`
	// PriceDeviation is (close - EMA) / EMA.
	PriceDeviation float64 `csv:"price_deviation"`
	// DeviationStd is the rolling standard deviation of PriceDeviation.
	DeviationStd float64 `csv:"deviation_std"`
	// RSI is the relative strength index, 100 when the window has no losses.
	RSI float64 `csv:"rsi"`
}
