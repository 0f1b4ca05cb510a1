// Package marketdata downloads historical OHLCV bars from an upstream
// provider and persists them in the formats the backtest datasource reads.
package marketdata

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantmill/meanrev/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
)

type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer the provider persists bars through.
	ConfigWriter(writer Writer)
	// Download downloads bars for the given ticker and date range. The
	// context can be used to cancel the download operation. Returns the
	// path the writer produced.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a new market data provider based on the
// provider type.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires API key string config")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
