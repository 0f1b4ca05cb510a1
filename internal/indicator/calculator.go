// Package indicator derives per-bar technical values from a price series.
// Every calculation is causal: the frame at bar t reads only bars <= t.
package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/pkg/errors"
)

// Calculator combines the RSI and z-score calculators into one pass that
// yields exactly one IndicatorFrame per input bar. Bars inside a lookback
// window carry None fields so downstream consumers treat them as "no signal"
// instead of acting on a zero.
type Calculator struct {
	rsi    *RSI
	zscore *ZScore
	// volumeWindow is the trailing window for the average-volume filter.
	volumeWindow int
}

// NewCalculator builds a Calculator for the given lookbacks. The volume
// window matches the mean window, which is how the strategy defines its
// 20-day average volume filter.
func NewCalculator(rsiPeriod, meanWindow int) (*Calculator, error) {
	rsi, err := NewRSIWithPeriod(rsiPeriod)
	if err != nil {
		return nil, err
	}

	zscore, err := NewZScoreWithWindow(meanWindow)
	if err != nil {
		return nil, err
	}

	return &Calculator{
		rsi:          rsi,
		zscore:       zscore,
		volumeWindow: meanWindow,
	}, nil
}

// Compute produces one IndicatorFrame per bar.
//
// The average volume at bar t is the trailing mean over bars
// [t-window, t-1]: it deliberately excludes bar t so the volume filter
// compares the current bar's volume against history only.
func (c *Calculator) Compute(bars []types.PriceBar) []types.IndicatorFrame {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	rsiSeries := c.rsi.Series(closes)
	meanSeries, stdSeries, zSeries := c.zscore.Series(closes)

	frames := make([]types.IndicatorFrame, len(bars))
	for i, bar := range bars {
		frames[i] = types.IndicatorFrame{
			Time:        bar.Time,
			RSI:         rsiSeries[i],
			RollingMean: meanSeries[i],
			RollingStd:  stdSeries[i],
			ZScore:      zSeries[i],
			AvgVolume:   c.avgVolumeAt(bars, i),
		}
	}

	return frames
}

func (c *Calculator) avgVolumeAt(bars []types.PriceBar, i int) optional.Option[float64] {
	if i < c.volumeWindow {
		return optional.None[float64]()
	}

	sum := 0.0
	for j := i - c.volumeWindow; j < i; j++ {
		sum += bars[j].Volume
	}

	return optional.Some(sum / float64(c.volumeWindow))
}

// RequiredBars returns the minimum series length before any frame field can
// be defined. Useful for datasource lookback queries that want to report an
// explicit InsufficientDataError instead of silently returning None frames.
func (c *Calculator) RequiredBars() int {
	required := c.rsi.Period() + 1
	if c.zscore.Window() > required {
		required = c.zscore.Window()
	}

	return required
}

// CheckSufficientData returns an InsufficientDataError when the series is
// shorter than the longest lookback.
func (c *Calculator) CheckSufficientData(bars []types.PriceBar, symbol string) error {
	if len(bars) < c.RequiredBars() {
		return errors.NewInsufficientDataErrorf(c.RequiredBars(), len(bars), symbol,
			"insufficient data for indicators: required %d bars, got %d", c.RequiredBars(), len(bars))
	}

	return nil
}
