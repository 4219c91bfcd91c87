package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meridian-quant/volregime/internal/types"
)

// ResultWriter persists the output of one backtest run.
type ResultWriter interface {
	// WriteTrades writes the completed trade list.
	WriteTrades(trades []types.Trade) error
	// WriteStats writes the run statistics.
	WriteStats(stats types.BacktestStats) error
	// TradesPath returns the path trades are written to.
	TradesPath() string
	// Close finalizes the writing process.
	Close() error
}

// CSVWriter implements ResultWriter with a trades.csv and a metrics.yaml
// per run folder.
type CSVWriter struct {
	runDir     string
	tradesFile *os.File
	tradesCsv  *csv.Writer
}

// NewCSVWriter creates a writer rooted at a timestamped run directory under
// the given base directory.
func NewCSVWriter(baseDir string, runID string) (ResultWriter, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runDir := filepath.Join(baseDir, fmt.Sprintf("%s_%s", timestamp, runID))

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	tradesFile, err := os.Create(filepath.Join(runDir, "trades.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to create trades file: %w", err)
	}

	tradesCsv := csv.NewWriter(tradesFile)

	header := []string{"entry_date", "exit_date", "entry_price", "exit_price", "direction", "pnl", "holding_days", "exit_reason"}
	if err := tradesCsv.Write(header); err != nil {
		tradesFile.Close()

		return nil, fmt.Errorf("failed to write trades header: %w", err)
	}

	return &CSVWriter{
		runDir:     runDir,
		tradesFile: tradesFile,
		tradesCsv:  tradesCsv,
	}, nil
}

// WriteTrades implements ResultWriter.
func (w *CSVWriter) WriteTrades(trades []types.Trade) error {
	for _, trade := range trades {
		record := []string{
			trade.EntryDate.Format("2006-01-02"),
			trade.ExitDate.Format("2006-01-02"),
			strconv.FormatFloat(trade.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(trade.ExitPrice, 'f', -1, 64),
			trade.Direction.String(),
			strconv.FormatFloat(trade.PnL, 'f', -1, 64),
			strconv.Itoa(trade.HoldingDays),
			string(trade.ExitReason),
		}

		if err := w.tradesCsv.Write(record); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	w.tradesCsv.Flush()

	return w.tradesCsv.Error()
}

// WriteStats implements ResultWriter.
func (w *CSVWriter) WriteStats(stats types.BacktestStats) error {
	return types.WriteBacktestStats(filepath.Join(w.runDir, "metrics.yaml"), []types.BacktestStats{stats})
}

// TradesPath implements ResultWriter.
func (w *CSVWriter) TradesPath() string {
	return filepath.Join(w.runDir, "trades.csv")
}

// Close implements ResultWriter.
func (w *CSVWriter) Close() error {
	w.tradesCsv.Flush()

	if err := w.tradesCsv.Error(); err != nil {
		w.tradesFile.Close()

		return err
	}

	return w.tradesFile.Close()
}
