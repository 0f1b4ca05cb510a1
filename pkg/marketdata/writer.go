package marketdata

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/pkg/errors"
)

// Writer defines the interface for persisting downloaded bars.
type Writer interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.PriceBar) error
	// Finalize completes the writing process and exports the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// DuckDBWriter buffers bars in an in-memory DuckDB table and exports them on
// Finalize. The output format follows the path extension: parquet or csv.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewDuckDBWriter creates a new DuckDBWriter targeting the given output file.
func NewDuckDBWriter(outputPath string) Writer {
	return &DuckDBWriter{
		outputPath: outputPath,
	}
}

// Initialize opens the in-memory database, creates the staging table, and
// prepares the insert statement inside a transaction.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	return nil
}

// Write persists a single bar using the prepared statement.
func (w *DuckDBWriter) Write(bar types.PriceBar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	_, err := w.stmt.Exec(bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	if err != nil {
		return fmt.Errorf("failed to insert bar: %w", err)
	}

	return nil
}

// Finalize commits the transaction and exports the staged bars, ordered by
// time, to the output file.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or already finalized")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.tx = nil

	var format string

	switch strings.ToLower(filepath.Ext(w.outputPath)) {
	case ".parquet":
		format = "FORMAT PARQUET"
	case ".csv":
		format = "FORMAT CSV, HEADER"
	default:
		return "", errors.Newf(errors.ErrCodeMarketDataWriteFailed, "unsupported output format: %s", filepath.Ext(w.outputPath))
	}

	_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM market_data ORDER BY time) TO '%s' (%s)`, w.outputPath, format))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export bars", err)
	}

	return w.outputPath, nil
}

// Close cleans up the statement, any open transaction, and the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close database: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return closeErrors[0]
	}

	return nil
}

// GetOutputPath returns the configured output file path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
