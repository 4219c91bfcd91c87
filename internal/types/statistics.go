package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Metrics is the fixed-shape performance summary derived from a trade list.
// WinRate, AvgReturn, MaxDrawdown and CAGR are fractional values, not
// percentages; SharpeRatio is an annualized unitless ratio. All fields are
// zero when the trade list is empty.
type Metrics struct {
	TotalTrades int     `yaml:"total_trades" json:"total_trades"`
	WinRate     float64 `yaml:"win_rate" json:"win_rate"`
	AvgReturn   float64 `yaml:"avg_return" json:"avg_return"`
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	CAGR        float64 `yaml:"cagr" json:"cagr"`
}

// SignalCounts tallies the signals observed during a run.
type SignalCounts struct {
	LongEntries  int `yaml:"long_entries"`
	ShortEntries int `yaml:"short_entries"`
	Exits        int `yaml:"exits"`
	ForcedExits  int `yaml:"forced_exits"`
}

// BacktestStats is the full result record for one backtest run.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Symbol of the instrument.
	Symbol string `yaml:"symbol"`
	// Metrics of all trades.
	Metrics Metrics `yaml:"metrics"`
	// Signals observed during the run.
	Signals SignalCounts `yaml:"signals"`
	// Final equity after compounding every trade on the initial capital.
	FinalEquity float64 `yaml:"final_equity"`
	// Buy and hold PnL over the same span, as a fractional return.
	BuyAndHoldPnl float64 `yaml:"buy_and_hold_pnl"`
	// TradesFilePath is the path to the trades csv file.
	TradesFilePath string `yaml:"trades_file_path"`
	// DataPath is the path to the market data file used for this run.
	DataPath string `yaml:"data_path"`
}

// WriteBacktestStats writes run results to a YAML file.
func WriteBacktestStats(path string, stats []BacktestStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest stats to file: %w", err)
	}

	return nil
}

// ReadBacktestStats reads run results back from a YAML file.
func ReadBacktestStats(path string) ([]BacktestStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest stats file: %w", err)
	}

	var stats []BacktestStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest stats: %w", err)
	}

	return stats, nil
}
