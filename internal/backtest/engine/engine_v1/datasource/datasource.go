package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/internal/types"
)

// SQLResult represents a row of data from a SQL query.
type SQLResult struct {
	Values map[string]interface{}
}

type DataSource interface {
	// Initialize loads the market data file at the given path. Parquet and
	// CSV files are supported, selected by extension.
	Initialize(path string) error
	// ReadAll reads bars in ascending time order, bounded by the optional
	// start and end times, and yields them to the caller.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.PriceBar, error) bool)
	// ReadLastBar reads the most recent bar from the data source.
	ReadLastBar() (types.PriceBar, error)
	// ExecuteSQL executes a raw SQL query and returns the results as SQLResult.
	ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error)
	// Count returns the number of bars within the optional time bounds.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources.
	Close() error
}
