package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-quant/volregime/internal/indicator"
	"github.com/meridian-quant/volregime/internal/types"
)

// Summarize turns a trade list into the performance summary. An empty trade
// list yields all-zero Metrics. Degenerate statistics (zero variance of
// excess returns, zero elapsed years) fall back to 0.0 instead of
// propagating NaN or Inf.
func Summarize(trades []types.Trade, seriesStart, seriesEnd time.Time, riskFreeRate float64) types.Metrics {
	if len(trades) == 0 {
		return types.Metrics{}
	}

	totalTrades := len(trades)
	winningTrades := 0
	returnSum := 0.0

	for _, trade := range trades {
		if trade.PnL > 0 {
			winningTrades++
		}

		returnSum += trade.PnL
	}

	return types.Metrics{
		TotalTrades: totalTrades,
		WinRate:     float64(winningTrades) / float64(totalTrades),
		AvgReturn:   returnSum / float64(totalTrades),
		SharpeRatio: sharpeRatio(trades, riskFreeRate),
		MaxDrawdown: maxDrawdown(trades),
		CAGR:        cagr(trades, seriesStart, seriesEnd),
	}
}

// sharpeRatio annualizes the mean of per-trade excess returns over their
// standard deviation. With zero variance (a single trade, or identical
// returns) the ratio is undefined and reported as 0.
func sharpeRatio(trades []types.Trade, riskFreeRate float64) float64 {
	dailyRiskFree := riskFreeRate / indicator.TradingDaysPerYear

	excess := make([]float64, len(trades))
	sum := 0.0

	for i, trade := range trades {
		excess[i] = trade.PnL - dailyRiskFree
		sum += excess[i]
	}

	mean := sum / float64(len(excess))

	squaredDiffSum := 0.0
	for _, e := range excess {
		diff := e - mean
		squaredDiffSum += diff * diff
	}

	std := math.Sqrt(squaredDiffSum / float64(len(excess)))
	if std == 0 {
		return 0
	}

	return math.Sqrt(indicator.TradingDaysPerYear) * mean / std
}

// maxDrawdown walks the trade-indexed cumulative equity curve and returns
// the deepest fractional decline from its running peak. Always <= 0, and
// exactly 0 when no trade ever dips the curve below its peak.
func maxDrawdown(trades []types.Trade) float64 {
	one := decimal.NewFromInt(1)
	cumulative := one
	runningMax := one
	drawdown := decimal.Zero

	for _, trade := range trades {
		cumulative = cumulative.Mul(one.Add(decimal.NewFromFloat(trade.PnL)))

		if cumulative.GreaterThan(runningMax) {
			runningMax = cumulative
		}

		dd := cumulative.Sub(runningMax).Div(runningMax)
		if dd.LessThan(drawdown) {
			drawdown = dd
		}
	}

	result, _ := drawdown.Float64()

	return result
}

// cagr compounds every trade return and annualizes over the elapsed span of
// the bar series. A zero-length span makes the rate undefined; it is
// reported as 0.
func cagr(trades []types.Trade, seriesStart, seriesEnd time.Time) float64 {
	years := seriesEnd.Sub(seriesStart).Hours() / 24 / 365
	if years == 0 {
		return 0
	}

	totalReturn := TotalReturn(trades)

	return math.Pow(1+totalReturn, 1/years) - 1
}

// TotalReturn is the compounded fractional return of the whole trade list.
func TotalReturn(trades []types.Trade) float64 {
	one := decimal.NewFromInt(1)
	cumulative := one

	for _, trade := range trades {
		cumulative = cumulative.Mul(one.Add(decimal.NewFromFloat(trade.PnL)))
	}

	result, _ := cumulative.Sub(one).Float64()

	return result
}
