package engine

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/meridian-quant/volregime/internal/backtest/engine"
	"github.com/meridian-quant/volregime/internal/backtest/engine/engine_v1/datasource"
	"github.com/meridian-quant/volregime/internal/backtest/engine/engine_v1/writer"
	"github.com/meridian-quant/volregime/internal/indicator"
	"github.com/meridian-quant/volregime/internal/logger"
	"github.com/meridian-quant/volregime/internal/types"
	"github.com/meridian-quant/volregime/internal/version"
	"github.com/meridian-quant/volregime/pkg/errors"
)

// BacktestEngineV1 runs the volatility-regime mean-reversion backtest over
// one or more data files. Each file is an independent run: pipeline,
// simulation and summary share nothing across files.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	log           *logger.Logger
	dataPaths     []string
	resultsFolder string
	pipeline      *indicator.Pipeline
	simulator     *Simulator
	stats         []types.BacktestStats
}

// NewBacktestEngineV1 creates an uninitialized engine.
func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		log:           nil,
		dataPaths:     nil,
		resultsFolder: "",
		pipeline:      nil,
		simulator:     nil,
		stats:         nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	err := yaml.Unmarshal([]byte(config), &b.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse config", err)
	}

	if b.config.Version != "" {
		if err := version.CheckConfigCompatibility(version.GetVersion(), b.config.Version); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidVersion, "config version not supported", err)
		}
	}

	b.log, err = logger.NewComponentLogger("backtest")
	if err != nil {
		return err
	}

	b.pipeline, err = indicator.NewPipeline(b.config.Strategy.PipelineConfig)
	if err != nil {
		return err
	}

	b.simulator, err = NewSimulator(b.config.Strategy)
	if err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	paths, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestNoDataPaths, "failed to expand data path", err)
	}

	if len(paths) == 0 {
		return errors.Newf(errors.ErrCodeBacktestNoDataPaths, "no data files match %s", path)
	}

	b.dataPaths = paths

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	if folder == "" {
		return errors.New(errors.ErrCodeBacktestNoResultsDir, "results folder is required")
	}

	b.resultsFolder = folder

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context) error {
	if b.simulator == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.dataPaths) == 0 {
		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths configured")
	}

	if b.resultsFolder == "" {
		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder configured")
	}

	source, err := datasource.NewDataSource(b.log)
	if err != nil {
		return err
	}
	defer source.Close()

	bar := progressbar.NewOptions(len(b.dataPaths),
		progressbar.OptionSetDescription("Backtesting"),
		progressbar.OptionShowCount(),
	)

	for _, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.runOne(source, dataPath); err != nil {
			return err
		}

		bar.Add(1)
	}

	bar.Finish()

	return nil
}

// runOne executes the full pipeline -> simulate -> summarize chain for a
// single data file and persists the results.
func (b *BacktestEngineV1) runOne(source datasource.DataSource, dataPath string) error {
	symbol := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	runID := uuid.New().String()

	b.log.Info("Starting run",
		zap.String("symbol", symbol),
		zap.String("data_path", dataPath),
		zap.String("run_id", runID),
	)

	if err := source.Initialize(dataPath); err != nil {
		return err
	}

	bars, err := source.ReadAll(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return err
	}

	// Shape violations are rejected here, before the pipeline ever sees
	// the series.
	if err := types.ValidateBarSeries(bars); err != nil {
		return err
	}

	// A series shorter than the indicator warm-up is not an error; the run
	// just produces no trades. Flag it so an empty result is explainable.
	if warmup := b.config.Strategy.WarmupBars(); len(bars) <= warmup {
		insufficient := errors.NewInsufficientDataError(warmup+1, len(bars), symbol,
			"series shorter than the indicator warm-up")
		b.log.Warn("Not enough bars to populate the indicator windows",
			zap.String("symbol", symbol),
			zap.Error(insufficient),
		)
	}

	enriched := b.pipeline.Compute(bars)
	trades, signals := b.simulator.Simulate(enriched)

	var seriesStart, seriesEnd time.Time

	buyAndHold := 0.0

	if len(enriched) > 0 {
		seriesStart = enriched[0].Date
		seriesEnd = enriched[len(enriched)-1].Date
		buyAndHold = (enriched[len(enriched)-1].Close - enriched[0].Close) / enriched[0].Close
	}

	metrics := Summarize(trades, seriesStart, seriesEnd, b.config.Strategy.RiskFreeRate)

	b.log.Info("Run complete",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
		zap.Int("usable_bars", len(enriched)),
		zap.Int("trades", metrics.TotalTrades),
		zap.Int("long_entries", signals.LongEntries),
		zap.Int("short_entries", signals.ShortEntries),
		zap.Int("exits", signals.Exits),
		zap.Int("forced_exits", signals.ForcedExits),
		zap.Float64("win_rate", metrics.WinRate),
	)

	resultWriter, err := writer.NewCSVWriter(filepath.Join(b.resultsFolder, symbol), runID)
	if err != nil {
		return err
	}

	if err := resultWriter.WriteTrades(trades); err != nil {
		resultWriter.Close()

		return err
	}

	stats := types.BacktestStats{
		ID:             runID,
		Timestamp:      time.Now(),
		Symbol:         symbol,
		Metrics:        metrics,
		Signals:        signals,
		FinalEquity:    b.config.InitialCapital * (1 + TotalReturn(trades)),
		BuyAndHoldPnl:  buyAndHold,
		TradesFilePath: resultWriter.TradesPath(),
		DataPath:       dataPath,
	}

	if err := resultWriter.WriteStats(stats); err != nil {
		resultWriter.Close()

		return err
	}

	b.stats = append(b.stats, stats)

	return resultWriter.Close()
}

// GetStats implements engine.Engine.
func (b *BacktestEngineV1) GetStats() []types.BacktestStats {
	return b.stats
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}
