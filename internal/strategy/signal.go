// Package strategy turns indicator frames into trading signals. Evaluation is
// a pure function of the current frame, bar, position status, and config, so
// a signal can be reproduced from its inputs alone.
package strategy

import (
	"fmt"
	"time"

	"github.com/quantmill/meanrev/internal/types"
)

// Evaluate applies the mean-reversion rule to a single bar. The exit rule is
// checked before the entry rule, so a long position can never receive an
// entry signal on a bar where it should exit. Bars where RSI or the z-score
// is still undefined never produce a signal.
func Evaluate(frame types.IndicatorFrame, bar types.PriceBar, status types.PositionStatus, cfg Config) types.Signal {
	if status == types.PositionStatusLong {
		if sig, ok := evaluateExit(frame, bar.Time, cfg); ok {
			return sig
		}
	}

	if status == types.PositionStatusFlat {
		if sig, ok := evaluateEntry(frame, bar, cfg); ok {
			return sig
		}
	}

	return types.Signal{
		Time: bar.Time,
		Type: types.SignalTypeNone,
	}
}

func evaluateExit(frame types.IndicatorFrame, t time.Time, cfg Config) (types.Signal, bool) {
	if frame.RSI.IsNone() || frame.ZScore.IsNone() {
		return types.Signal{}, false
	}

	rsi := frame.RSI.Unwrap()
	z := frame.ZScore.Unwrap()

	if rsi > cfg.Overbought && z > cfg.ZThreshold {
		return types.Signal{
			Time:   t,
			Type:   types.SignalTypeExitLong,
			Reason: fmt.Sprintf("RSI overbought (%.2f > %.2f) and price stretched above mean (z=%.2f)", rsi, cfg.Overbought, z),
			RawValue: map[string]float64{
				"rsi":     rsi,
				"z_score": z,
			},
		}, true
	}

	return types.Signal{}, false
}

func evaluateEntry(frame types.IndicatorFrame, bar types.PriceBar, cfg Config) (types.Signal, bool) {
	if frame.RSI.IsNone() || frame.ZScore.IsNone() || frame.AvgVolume.IsNone() {
		return types.Signal{}, false
	}

	rsi := frame.RSI.Unwrap()
	z := frame.ZScore.Unwrap()
	avgVol := frame.AvgVolume.Unwrap()

	if rsi >= cfg.Oversold {
		return types.Signal{}, false
	}
	if z >= -cfg.ZThreshold {
		return types.Signal{}, false
	}
	if bar.Volume < cfg.VolumeRatio*avgVol {
		return types.Signal{}, false
	}
	if bar.Close < cfg.MinPrice {
		return types.Signal{}, false
	}

	return types.Signal{
		Time:   bar.Time,
		Type:   types.SignalTypeEnterLong,
		Reason: fmt.Sprintf("RSI oversold (%.2f < %.2f) and price stretched below mean (z=%.2f)", rsi, cfg.Oversold, z),
		RawValue: map[string]float64{
			"rsi":        rsi,
			"z_score":    z,
			"volume":     bar.Volume,
			"avg_volume": avgVol,
		},
	}, true
}
