package engine

import (
	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantmill/meanrev/internal/types"
)

// OnBarCallback is called after each processed bar with the current bar
// index (1-based) and the total bar count. Used by the CLI progress bar.
type OnBarCallback func(current int, total int)

// Result is the complete output of a single backtest run: the trade ledger,
// the per-bar equity curve, and the performance report derived from them.
type Result struct {
	RunID  string
	Trades []types.Trade
	Equity []types.EquityPoint
	Report types.PerformanceReport
}

type Engine interface {
	// Initialize the engine with the given YAML configuration content.
	Initialize(config string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run executes the backtest over the configured time window and returns
	// the run result. The optional callback receives per-bar progress.
	Run(onBar optional.Option[OnBarCallback]) (*Result, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
