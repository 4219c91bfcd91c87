package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/meridian-quant/volregime/internal/types"
)

// DataSource supplies the time-ordered daily bar series a backtest run
// consumes. Implementations must return bars sorted by date ascending.
type DataSource interface {
	// Initialize loads market data from the given path (csv or parquet).
	Initialize(path string) error
	// ReadAll returns every bar, optionally restricted to a date range.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars in the optional date range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources.
	Close() error
}
