package engine

import (
	"context"

	"github.com/meridian-quant/volregime/internal/types"
)

// Engine runs one or more backtests over historical daily bars.
type Engine interface {
	// Initialize the engine with the given YAML configuration content.
	Initialize(config string) error
	// SetDataPath sets the path to the market data files. Accepts glob
	// patterns for batch loading (e.g., "data/*.parquet"); each matched
	// file is one independent run.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory for saving backtest results.
	SetResultsFolder(folder string) error
	// Run executes the backtest for every data file. The context can be
	// used to cancel between runs.
	Run(ctx context.Context) error
	// GetStats returns the per-run results accumulated by Run.
	GetStats() []types.BacktestStats
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
