package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/pkg/errors"
)

// RSI computes the Relative Strength Index over a trailing window of close
// prices using a simple rolling average of gains and losses.
type RSI struct {
	period int
}

const defaultRSIPeriod = 14

// NewRSI creates an RSI calculator with the default 14-bar period.
func NewRSI() *RSI {
	return &RSI{period: defaultRSIPeriod}
}

// NewRSIWithPeriod creates an RSI calculator with an explicit period.
func NewRSIWithPeriod(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be a positive integer, got %d", period)
	}

	return &RSI{period: period}, nil
}

// Period returns the configured lookback period.
func (r *RSI) Period() int {
	return r.period
}

// Series computes the RSI for every index of closes. The first `period`
// values are None: the rolling average needs `period` deltas before the
// first defined value. When the trailing average loss is zero the RSI is
// exactly 100 (a perfect uptrend), never a division by zero.
func (r *RSI) Series(closes []float64) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(closes))
	for i := range out {
		out[i] = optional.None[float64]()
	}

	if len(closes) <= r.period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := r.period; i < len(closes); i++ {
		avgGain := 0.0
		avgLoss := 0.0

		// Simple rolling average over the trailing `period` deltas
		for j := i - r.period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}

		avgGain /= float64(r.period)
		avgLoss /= float64(r.period)

		if avgLoss == 0 {
			out[i] = optional.Some(100.0)

			continue
		}

		rs := avgGain / avgLoss
		out[i] = optional.Some(100 - (100 / (1 + rs)))
	}

	return out
}
