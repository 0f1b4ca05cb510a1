package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorFrame holds the per-bar derived values the signal generator
// consumes. Every field is optional: None marks "undefined" for bars that
// fall inside a lookback window or hit a degenerate denominator (zero
// rolling std, for example). Undefined is never encoded as zero or NaN.
type IndicatorFrame struct {
	Time        time.Time
	RSI         optional.Option[float64]
	RollingMean optional.Option[float64]
	RollingStd  optional.Option[float64]
	ZScore      optional.Option[float64]
	// AvgVolume is the trailing average volume through the prior bar,
	// so the volume filter never reads the bar being decided.
	AvgVolume optional.Option[float64]
}
