package marketdata

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/quantmill/meanrev/internal/logger"
	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/pkg/errors"
)

type PolygonClient struct {
	client *polygon.Client
	writer Writer
	log    *logger.Logger
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "apiKey is required")
	}

	log, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
		writer: nil,
		log:    log,
	}, nil
}

func (c *PolygonClient) ConfigWriter(w Writer) {
	c.writer = w
}

// Download implements Provider by paging through Polygon aggregates and
// streaming each bar into the configured writer.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeInvalidProvider, "no writer configured for PolygonClient, call ConfigWriter first")
	}

	err = c.writer.Initialize()
	if err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	defer func() {
		if cerr := c.writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing writer: %w", cerr)
		}
	}()

	totalDays := endDate.Sub(startDate).Hours()/24 + 1

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	processedCount := 0

	for iter.Next() {
		agg := iter.Item()
		bar := types.PriceBar{
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err = c.writer.Write(bar); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
		}

		processedCount++

		if onProgress != nil && processedCount%100 == 0 {
			daysElapsed := bar.Time.Sub(startDate).Hours() / 24
			onProgress(daysElapsed, totalDays, fmt.Sprintf("Downloading %s", ticker))
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(), "error iterating polygon aggregates for %s", ticker)
	}

	c.log.Info("Finished downloading bars",
		zap.String("ticker", ticker),
		zap.Int("count", processedCount),
	)

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return outputPath, nil
}
