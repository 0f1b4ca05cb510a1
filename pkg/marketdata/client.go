package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantmill/meanrev/pkg/errors"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=polygon"`
	WriterType    WriterType   `validate:"required,oneof=duckdb"`
	DataPath      string       `validate:"required"`
	PolygonApiKey string       `validate:"required_if=ProviderType polygon"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client downloads data from a provider and stores it through a writer.
type Client struct {
	provider   Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress OnDownloadProgress
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	provider, err := NewMarketDataProvider(config.ProviderType, config.PolygonApiKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider:   provider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Download initiates a market data download with the given parameters. The
// context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) error {
	if err := c.validate.Struct(params); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	writer, err := c.setupWriter(params)
	if err != nil {
		return fmt.Errorf("failed to setup writer: %w", err)
	}

	c.provider.ConfigWriter(writer)

	_, err = c.provider.Download(
		ctx,
		params.Ticker,
		params.StartDate,
		params.EndDate,
		params.Multiplier,
		params.Timespan,
		c.onProgress,
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "download failed for %s", params.Ticker)
	}

	return nil
}

// setupWriter initializes the appropriate writer based on configuration.
// The output file is named TICKER_START_END_MULTIPLIER_TIMESPAN.parquet.
func (c *Client) setupWriter(params DownloadParams) (Writer, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		outputFileName := fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
			params.Ticker,
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"),
			params.Multiplier,
			params.Timespan)
		outputPath := filepath.Join(c.config.DataPath, outputFileName)

		if _, err := os.Stat(c.config.DataPath); os.IsNotExist(err) {
			os.MkdirAll(c.config.DataPath, 0755)
		}

		return NewDuckDBWriter(outputPath), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}
