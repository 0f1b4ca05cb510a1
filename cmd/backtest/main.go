package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	backtestengine "github.com/quantmill/meanrev/internal/backtest/engine"
	enginev1 "github.com/quantmill/meanrev/internal/backtest/engine/engine_v1"
	"github.com/quantmill/meanrev/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantmill/meanrev/internal/logger"
	"github.com/quantmill/meanrev/internal/version"
)

// backtestAction reads the engine config, wires the data source, runs the
// backtest with a progress bar, and writes the report and ledger.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	outputPath := cmd.String("output")

	configContent, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	runLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer runLogger.Sync()

	eng := enginev1.NewBacktestEngineV1()
	if err := eng.Initialize(string(configContent)); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	source, err := datasource.NewDataSource(":memory:", runLogger)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return fmt.Errorf("failed to load market data: %w", err)
	}

	if err := eng.SetDataSource(source); err != nil {
		return fmt.Errorf("failed to set data source: %w", err)
	}

	var bar *progressbar.ProgressBar

	onBar := backtestengine.OnBarCallback(func(current int, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Backtesting"),
				progressbar.OptionShowCount(),
			)
		}

		bar.Set(current)
	})

	result, err := eng.Run(optional.Some(onBar))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if bar != nil {
		bar.Finish()
	}

	if v1, ok := eng.(*enginev1.BacktestEngineV1); ok {
		if err := v1.WriteResults(result, outputPath); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	fmt.Printf("\nRun %s complete: %d trades, total return %.4f, results in %s\n",
		result.RunID, result.Report.NumberOfTrades, result.Report.TotalReturn, outputPath)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run the mean-reversion backtest over a historical price series",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the engine YAML configuration file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the market data file (parquet or csv)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Path to the results output directory",
				Value:    "results",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
