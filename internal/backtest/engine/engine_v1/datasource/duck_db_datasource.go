package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantmill/meanrev/internal/logger"
	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/pkg/errors"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a new DuckDB data source instance with the specified
// database path (":memory:" for an in-memory database). This is distinct
// from Initialize() which loads market data into the database.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. It creates a view over the given data
// file; parquet and csv files are supported.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data format: %s", filepath.Ext(path))
	}

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// Raw SQL since Squirrel doesn't support CREATE VIEW.
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT time, open, high, low, close, volume FROM %s('%s');
	`, reader, path)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to load data from %s", path)
	}

	return nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, params := buildTimeBoundedQuery("SELECT COUNT(*) FROM market_data", start, end)

	var count int

	err := d.db.QueryRow(query, params...).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ReadAll implements DataSource with batch processing.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.PriceBar, error) bool) {
	const batchSize = 1000

	return func(yield func(types.PriceBar, error) bool) {
		base := `
			SELECT time, open, high, low, close, volume
			FROM market_data
		`
		query, params := buildTimeBoundedQuery(base, start, end)
		query += " ORDER BY time ASC"

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.PriceBar{}, err)

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(params...)
		if err != nil {
			yield(types.PriceBar{}, err)

			return
		}
		defer rows.Close()

		batch := make([]types.PriceBar, 0, batchSize)

		for rows.Next() {
			bar, err := scanBar(rows)
			if err != nil {
				yield(types.PriceBar{}, err)

				return
			}

			batch = append(batch, bar)

			if len(batch) >= batchSize {
				for _, b := range batch {
					if !yield(b, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.PriceBar{}, err)

			return
		}

		for _, b := range batch {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// ReadLastBar implements DataSource.
func (d *DuckDBDataSource) ReadLastBar() (types.PriceBar, error) {
	query, _, err := d.sq.
		Select("time", "open", "high", "low", "close", "volume").
		From("market_data").
		OrderBy("time DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return types.PriceBar{}, fmt.Errorf("failed to build query: %w", err)
	}

	var bar types.PriceBar

	err = d.db.QueryRow(query).Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		if err == sql.ErrNoRows {
			return types.PriceBar{}, errors.New(errors.ErrCodeNoDataFound, "no bars loaded")
		}

		return types.PriceBar{}, fmt.Errorf("failed to scan row: %w", err)
	}

	return bar, nil
}

// ExecuteSQL implements DataSource.
func (d *DuckDBDataSource) ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error) {
	d.logger.Debug("Executing SQL query", zap.String("query", query))

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare query: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := make([]SQLResult, 0, 1000)

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]interface{})
		for i, col := range columns {
			rowMap[col] = values[i]
		}

		result = append(result, SQLResult{Values: rowMap})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

func scanBar(rows *sql.Rows) (types.PriceBar, error) {
	var bar types.PriceBar

	err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
	if err != nil {
		return types.PriceBar{}, err
	}

	return bar, nil
}

func buildTimeBoundedQuery(base string, start optional.Option[time.Time], end optional.Option[time.Time]) (string, []interface{}) {
	var conditions []string

	var params []interface{}

	paramCount := 0

	if start.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time >= $%d", paramCount))
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time <= $%d", paramCount))
		params = append(params, end.Unwrap())
	}

	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	return base, params
}
