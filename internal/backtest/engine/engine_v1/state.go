package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantmill/meanrev/internal/logger"
	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/pkg/errors"
)

// BacktestState is the DuckDB-backed ledger for a run: the completed trades
// and the per-bar equity curve. It exists so results can be exported and
// cross-checked with SQL aggregates after the run.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open ledger database", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the ledger tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			exit_reason TEXT,
			realized_pnl DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			time TIMESTAMP PRIMARY KEY,
			value DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create equity table: %w", err)
	}

	return nil
}

// RecordTrades appends completed trades to the ledger inside one transaction.
func (b *BacktestState) RecordTrades(trades []types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, trade := range trades {
		insert := b.sq.
			Insert("trades").
			Columns(
				"id", "symbol", "entry_time", "exit_time", "entry_price",
				"exit_price", "quantity", "exit_reason", "realized_pnl",
			).
			Values(
				trade.ID, trade.Symbol, trade.EntryTime, trade.ExitTime, trade.EntryPrice,
				trade.ExitPrice, trade.Quantity, string(trade.ExitReason), trade.RealizedPnL,
			).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to insert trade", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecordEquity appends the equity curve to the ledger inside one transaction.
func (b *BacktestState) RecordEquity(points []types.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, point := range points {
		insert := b.sq.
			Insert("equity").
			Columns("time", "value").
			Values(point.Time, point.Value).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTrades returns all trades in entry order.
func (b *BacktestState) GetTrades() ([]types.Trade, error) {
	query := b.sq.
		Select(
			"id", "symbol", "entry_time", "exit_time", "entry_price",
			"exit_price", "quantity", "exit_reason", "realized_pnl",
		).
		From("trades").
		OrderBy("entry_time ASC").
		RunWith(b.db)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var reason string

		err := rows.Scan(
			&trade.ID, &trade.Symbol, &trade.EntryTime, &trade.ExitTime, &trade.EntryPrice,
			&trade.ExitPrice, &trade.Quantity, &reason, &trade.RealizedPnL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trade.ExitReason = types.ExitReason(reason)
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// TradeOutcomeCounts holds SQL-aggregated win/loss counts, used to
// cross-check the performance evaluator.
type TradeOutcomeCounts struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
}

// CountTradeOutcomes aggregates trade outcomes directly in the ledger.
func (b *BacktestState) CountTradeOutcomes() (TradeOutcomeCounts, error) {
	// Raw SQL since Squirrel doesn't support CASE aggregates.
	query := `
		SELECT
			COUNT(*) as total_trades,
			COALESCE(SUM(CASE WHEN realized_pnl > 0 THEN 1 ELSE 0 END), 0) as winning_trades,
			COALESCE(SUM(CASE WHEN realized_pnl <= 0 THEN 1 ELSE 0 END), 0) as losing_trades
		FROM trades
	`

	var counts TradeOutcomeCounts

	err := b.db.QueryRow(query).Scan(&counts.TotalTrades, &counts.WinningTrades, &counts.LosingTrades)
	if err != nil {
		return TradeOutcomeCounts{}, fmt.Errorf("failed to count trade outcomes: %w", err)
	}

	return counts, nil
}

// Write exports the ledger to Parquet files in the specified directory.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Raw SQL since Squirrel doesn't support COPY.
	tradesPath := filepath.Join(path, "trades.parquet")

	_, err := b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY entry_time) TO '%s' (FORMAT PARQUET)`, tradesPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to export trades to parquet", err)
	}

	equityPath := filepath.Join(path, "equity.parquet")

	_, err = b.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM equity ORDER BY time) TO '%s' (FORMAT PARQUET)`, equityPath))
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to export equity curve to parquet", err)
	}

	b.logger.Info("Exported backtest ledger",
		zap.String("trades", tradesPath),
		zap.String("equity", equityPath),
	)

	return nil
}

// Cleanup resets the ledger state for the next run.
func (b *BacktestState) Cleanup() error {
	_, err := b.db.Exec(`
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS equity;
	`)
	if err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

// Close closes the underlying database.
func (b *BacktestState) Close() error {
	if b.db != nil {
		return b.db.Close()
	}

	return nil
}
