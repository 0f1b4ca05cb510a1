package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/quantmill/meanrev/internal/backtest/engine"
	"github.com/quantmill/meanrev/internal/backtest/engine/engine_v1/datasource"
	"github.com/quantmill/meanrev/internal/indicator"
	"github.com/quantmill/meanrev/internal/logger"
	"github.com/quantmill/meanrev/internal/strategy"
	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/internal/version"
	"github.com/quantmill/meanrev/pkg/errors"
)

type BacktestEngineV1 struct {
	config     BacktestEngineV1Config
	log        *logger.Logger
	state      *BacktestState
	datasource datasource.DataSource
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:     EmptyConfig(),
		log:        nil,
		state:      nil,
		datasource: nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	err := yaml.Unmarshal([]byte(config), &b.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse engine config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	var loggerError error

	b.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("symbol", b.config.Symbol),
		zap.Float64("initial_capital", b.config.InitialCapital),
	)

	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return err
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize state", err)
	}

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(dataSource datasource.DataSource) error {
	b.datasource = dataSource

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	schema, err := b.config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Run implements engine.Engine. It materializes the configured time window,
// validates the series, computes the indicator frames, replays the bars
// through the signal generator and position simulator, writes the ledger,
// and evaluates performance.
func (b *BacktestEngineV1) Run(onBar optional.Option[engine.OnBarCallback]) (*engine.Result, error) {
	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	bars, err := b.loadBars()
	if err != nil {
		return nil, err
	}

	// Ordering and non-negativity are preconditions of the whole ledger, so
	// a malformed series aborts before any simulation.
	if err := types.ValidateSeries(bars); err != nil {
		return nil, err
	}

	calc, err := indicator.NewCalculator(b.config.Strategy.RSIPeriod, b.config.Strategy.MeanWindow)
	if err != nil {
		return nil, err
	}

	frames := calc.Compute(bars)
	sim := NewPositionSimulator(b.config.Strategy, b.config.InitialCapital, b.config.Symbol)
	total := len(bars)

	for i, bar := range bars {
		signal := strategy.Evaluate(frames[i], bar, sim.Status(), b.config.Strategy)
		signal.Symbol = b.config.Symbol

		// An entry on the final bar would be force-closed in the same
		// instant, producing a zero-length trade. Skip it.
		if i == total-1 && signal.Type == types.SignalTypeEnterLong {
			signal.Type = types.SignalTypeNone
		}

		sim.ProcessBar(bar, signal)

		if onBar.IsSome() {
			onBar.Unwrap()(i+1, total)
		}
	}

	if total > 0 {
		sim.Finalize(bars[total-1])
	}

	if err := b.state.RecordTrades(sim.Trades()); err != nil {
		return nil, err
	}

	if err := b.state.RecordEquity(sim.Equity()); err != nil {
		return nil, err
	}

	report := EvaluatePerformance(sim.Equity(), sim.Trades(), b.config.InitialCapital)
	report.ID = uuid.New().String()
	report.Timestamp = time.Now().UTC()
	report.EngineVersion = version.GetVersion()
	report.Symbol = b.config.Symbol

	b.log.Info("Backtest run complete",
		zap.String("run_id", report.ID),
		zap.Int("bars", total),
		zap.Int("trades", report.NumberOfTrades),
		zap.Float64("total_return", report.TotalReturn),
	)

	return &engine.Result{
		RunID:  report.ID,
		Trades: sim.Trades(),
		Equity: sim.Equity(),
		Report: report,
	}, nil
}

// WriteResults persists a run's report and ledger into the given folder:
// report.yaml plus trades.parquet and equity.parquet.
func (b *BacktestEngineV1) WriteResults(result *engine.Result, folder string) error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	if err := types.WriteReport(filepath.Join(folder, "report.yaml"), result.Report); err != nil {
		return err
	}

	return b.state.Write(folder)
}

// Cleanup resets the ledger so the engine can run again.
func (b *BacktestEngineV1) Cleanup() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	return b.state.Cleanup()
}

func (b *BacktestEngineV1) loadBars() ([]types.PriceBar, error) {
	count, err := b.datasource.Count(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to get data count: %w", err)
	}

	bars := make([]types.PriceBar, 0, count)

	for bar, err := range b.datasource.ReadAll(b.config.StartTime, b.config.EndTime) {
		if err != nil {
			return nil, fmt.Errorf("failed to read data: %w", err)
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "engine not initialized")
	}

	if b.datasource == nil {
		b.log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	return nil
}
