package engine

import (
	"math"

	"github.com/quantmill/meanrev/internal/types"
)

// TradingPeriodsPerYear is the annualization base for daily bars.
const TradingPeriodsPerYear = 252.0

// EvaluatePerformance computes the summary metrics from a completed run's
// equity curve and trade ledger. It is a pure function: inputs are never
// mutated, and every degenerate case has a defined fallback so no NaN or
// Inf can reach the report.
func EvaluatePerformance(equity []types.EquityPoint, trades []types.Trade, initialCapital float64) types.PerformanceReport {
	report := types.PerformanceReport{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		NumberOfTrades: len(trades),
	}

	if len(equity) > 0 {
		report.FinalEquity = equity[len(equity)-1].Value
	}

	if len(equity) > 1 && equity[0].Value > 0 {
		report.TotalReturn = report.FinalEquity/equity[0].Value - 1
		report.AnnualizedReturn = math.Pow(1+report.TotalReturn, TradingPeriodsPerYear/float64(len(equity))) - 1

		returns := dailyReturns(equity)
		report.Volatility = sampleStdDev(returns) * math.Sqrt(TradingPeriodsPerYear)

		if report.Volatility > 0 {
			report.SharpeRatio = report.AnnualizedReturn / report.Volatility
		}
	}

	report.MaxDrawdown = maxDrawdown(equity)

	for _, trade := range trades {
		if trade.RealizedPnL > 0 {
			report.NumberOfWinningTrades++
		} else {
			report.NumberOfLosingTrades++
		}
	}

	if len(trades) > 0 {
		report.WinRate = float64(report.NumberOfWinningTrades) / float64(len(trades))
	}

	return report
}

func dailyReturns(equity []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		if equity[i-1].Value == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, equity[i].Value/equity[i-1].Value-1)
	}

	return returns
}

// sampleStdDev is the n-1 standard deviation; fewer than two observations
// give 0.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))

	var sumSq float64

	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)-1))
}

// maxDrawdown is the worst peak-to-trough decline as a non-positive
// fraction. A monotonically rising curve yields 0.
func maxDrawdown(equity []types.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0].Value
	worst := 0.0

	for _, point := range equity {
		if point.Value > peak {
			peak = point.Value
		}

		if peak > 0 {
			drawdown := point.Value/peak - 1
			if drawdown < worst {
				worst = drawdown
			}
		}
	}

	return worst
}
