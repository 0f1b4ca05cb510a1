package types

import (
	"time"

	"github.com/quantmill/meanrev/pkg/errors"
)

// PriceBar is a single daily OHLCV bar. Bars are immutable once ingested;
// the upstream data collaborator is responsible for producing them.
type PriceBar struct {
	Time   time.Time `csv:"time" yaml:"time"`
	Open   float64   `csv:"open" yaml:"open"`
	High   float64   `csv:"high" yaml:"high"`
	Low    float64   `csv:"low" yaml:"low"`
	Close  float64   `csv:"close" yaml:"close"`
	Volume float64   `csv:"volume" yaml:"volume"`
}

// ValidateSeries checks the preconditions the simulation depends on:
// strictly increasing timestamps and non-negative prices and volume.
// A violation is fatal for the whole run, since the correctness of the
// ledger depends on strict temporal ordering.
func ValidateSeries(bars []PriceBar) error {
	for i, bar := range bars {
		if bar.Open < 0 || bar.High < 0 || bar.Low < 0 || bar.Close < 0 {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"negative price at bar %d (%s)", i, bar.Time.Format("2006-01-02"))
		}

		if bar.Volume < 0 {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"negative volume at bar %d (%s)", i, bar.Time.Format("2006-01-02"))
		}

		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidSeries,
				"non-monotonic timestamp at bar %d: %s is not after %s",
				i, bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}
