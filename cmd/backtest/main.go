package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	engine "github.com/meridian-quant/volregime/internal/backtest/engine/engine_v1"
	"github.com/meridian-quant/volregime/internal/version"
)

// runAction loads the config, points the engine at the data files and runs
// every backtest, then prints a per-symbol report.
func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	config := ""

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		config = string(content)
	}

	backtester := engine.NewBacktestEngineV1()

	if err := backtester.Initialize(config); err != nil {
		return fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(outputPath); err != nil {
		return err
	}

	if err := backtester.Run(ctx); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	for _, stats := range backtester.GetStats() {
		fmt.Printf("\n=== %s ===\n", stats.Symbol)
		fmt.Printf("Total trades:    %d\n", stats.Metrics.TotalTrades)
		fmt.Printf("Win rate:        %.2f%%\n", stats.Metrics.WinRate*100)
		fmt.Printf("Avg return:      %.2f%%\n", stats.Metrics.AvgReturn*100)
		fmt.Printf("Sharpe ratio:    %.2f\n", stats.Metrics.SharpeRatio)
		fmt.Printf("Max drawdown:    %.2f%%\n", stats.Metrics.MaxDrawdown*100)
		fmt.Printf("CAGR:            %.2f%%\n", stats.Metrics.CAGR*100)
		fmt.Printf("Final equity:    %.2f\n", stats.FinalEquity)
		fmt.Printf("Buy & hold PnL:  %.2f%%\n", stats.BuyAndHoldPnl*100)
		fmt.Printf("Trades file:     %s\n", stats.TradesFilePath)
	}

	return nil
}

// schemaAction prints the JSON schema of the engine configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := engine.NewBacktestEngineV1()

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run volatility-regime mean-reversion backtests over daily bars",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run backtests for every matched data file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML engine config. Defaults are used when omitted.",
						Required: false,
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Glob of data files to backtest (e.g. \"data/*.parquet\")",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory for per-run trade and metrics files",
						Value:    "results",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
