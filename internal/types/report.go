package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceReport is the read-only summary of a completed run, computed
// once from the final equity curve and trade ledger.
type PerformanceReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// EngineVersion is the engine version that produced this report.
	EngineVersion string `yaml:"engine_version"`
	// Symbol of the instrument that was simulated.
	Symbol string `yaml:"symbol"`

	InitialCapital float64 `yaml:"initial_capital"`
	FinalEquity    float64 `yaml:"final_equity"`

	// TotalReturn is equity[-1]/equity[0] - 1.
	TotalReturn float64 `yaml:"total_return"`
	// AnnualizedReturn is (1+total_return)^(252/len(equity)) - 1.
	AnnualizedReturn float64 `yaml:"annualized_return"`
	// Volatility is stdev(daily_returns) * sqrt(252).
	Volatility float64 `yaml:"volatility"`
	// SharpeRatio is annualized_return/volatility, 0 when volatility is 0.
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// MaxDrawdown is the worst peak-to-trough decline as a non-positive fraction.
	MaxDrawdown float64 `yaml:"max_drawdown"`

	NumberOfTrades        int `yaml:"number_of_trades"`
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	NumberOfLosingTrades  int `yaml:"number_of_losing_trades"`
	// WinRate is winning trades over total trades, 0 when there are none.
	WinRate float64 `yaml:"win_rate"`
}

// WriteReport serializes the report to a YAML file for downstream renderers.
func WriteReport(path string, report PerformanceReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal performance report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance report to file: %w", err)
	}

	return nil
}
