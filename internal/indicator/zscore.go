package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/quantmill/meanrev/pkg/errors"
)

// ZScore computes how many standard deviations each close price lies from
// its trailing rolling mean.
type ZScore struct {
	window int
}

const defaultZScoreWindow = 20

// NewZScore creates a z-score calculator with the default 20-bar window.
func NewZScore() *ZScore {
	return &ZScore{window: defaultZScoreWindow}
}

// NewZScoreWithWindow creates a z-score calculator with an explicit window.
func NewZScoreWithWindow(window int) (*ZScore, error) {
	if window <= 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "z-score window must be greater than 1, got %d", window)
	}

	return &ZScore{window: window}, nil
}

// Window returns the configured rolling window.
func (z *ZScore) Window() int {
	return z.window
}

// Series computes the rolling mean, sample standard deviation, and z-score
// for every index of closes. Values are None until the window is filled, and
// the z-score is additionally None wherever the standard deviation is zero,
// so a flat series never produces ±Inf.
func (z *ZScore) Series(closes []float64) (mean, std, score []optional.Option[float64]) {
	mean = make([]optional.Option[float64], len(closes))
	std = make([]optional.Option[float64], len(closes))
	score = make([]optional.Option[float64], len(closes))

	for i := range closes {
		mean[i] = optional.None[float64]()
		std[i] = optional.None[float64]()
		score[i] = optional.None[float64]()

		if i < z.window-1 {
			continue
		}

		window := closes[i-z.window+1 : i+1]

		sum := 0.0
		for _, v := range window {
			sum += v
		}

		m := sum / float64(z.window)

		// Sample standard deviation (n-1 denominator)
		variance := 0.0
		for _, v := range window {
			variance += (v - m) * (v - m)
		}

		variance /= float64(z.window - 1)
		s := math.Sqrt(variance)

		mean[i] = optional.Some(m)
		std[i] = optional.Some(s)

		if s == 0 {
			continue
		}

		score[i] = optional.Some((closes[i] - m) / s)
	}

	return mean, std, score
}
