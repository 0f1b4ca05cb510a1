package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantmill/meanrev/internal/types"
)

type PerformanceTestSuite struct {
	suite.Suite
}

func TestPerformanceSuite(t *testing.T) {
	suite.Run(t, new(PerformanceTestSuite))
}

func equityCurve(values ...float64) []types.EquityPoint {
	points := make([]types.EquityPoint, len(values))
	for i, v := range values {
		points[i] = types.EquityPoint{Time: day(i), Value: v}
	}

	return points
}

func tradeWithPnL(pnl float64) types.Trade {
	return types.Trade{
		EntryTime:   day(0),
		ExitTime:    day(1),
		RealizedPnL: pnl,
	}
}

func (suite *PerformanceTestSuite) TestFlatEquityCurve() {
	equity := equityCurve(10000, 10000, 10000, 10000)

	report := EvaluatePerformance(equity, nil, 10000)

	suite.Equal(0.0, report.TotalReturn)
	suite.Equal(0.0, report.AnnualizedReturn)
	suite.Equal(0.0, report.Volatility)
	suite.Equal(0.0, report.SharpeRatio)
	suite.Equal(0.0, report.MaxDrawdown)
	suite.Equal(0, report.NumberOfTrades)
	suite.Equal(0.0, report.WinRate)
	suite.Equal(10000.0, report.FinalEquity)
}

func (suite *PerformanceTestSuite) TestTotalAndAnnualizedReturn() {
	equity := equityCurve(10000, 10100, 10200, 10500)

	report := EvaluatePerformance(equity, nil, 10000)

	suite.InDelta(0.05, report.TotalReturn, 1e-12)

	wantAnnualized := math.Pow(1.05, 252.0/4.0) - 1
	suite.InDelta(wantAnnualized, report.AnnualizedReturn, 1e-12)
	suite.Positive(report.Volatility)
	suite.Equal(report.AnnualizedReturn/report.Volatility, report.SharpeRatio)
}

func (suite *PerformanceTestSuite) TestMaxDrawdownIsNonPositiveFraction() {
	equity := equityCurve(10000, 11000, 9900, 10450, 10500)

	report := EvaluatePerformance(equity, nil, 10000)

	suite.InDelta(-0.1, report.MaxDrawdown, 1e-12)
	suite.LessOrEqual(report.MaxDrawdown, 0.0)
}

func (suite *PerformanceTestSuite) TestWinRateTwoOfThree() {
	trades := []types.Trade{
		tradeWithPnL(50),
		tradeWithPnL(-20),
		tradeWithPnL(30),
	}
	equity := equityCurve(10000, 10050, 10030, 10060)

	report := EvaluatePerformance(equity, trades, 10000)

	suite.Equal(3, report.NumberOfTrades)
	suite.Equal(2, report.NumberOfWinningTrades)
	suite.Equal(1, report.NumberOfLosingTrades)
	suite.InDelta(2.0/3.0, report.WinRate, 1e-12)
}

func (suite *PerformanceTestSuite) TestZeroPnLTradeCountsAsLoss() {
	report := EvaluatePerformance(equityCurve(10000, 10000), []types.Trade{tradeWithPnL(0)}, 10000)

	suite.Equal(0, report.NumberOfWinningTrades)
	suite.Equal(1, report.NumberOfLosingTrades)
	suite.Equal(0.0, report.WinRate)
}

func (suite *PerformanceTestSuite) TestEmptyEquityCurve() {
	report := EvaluatePerformance(nil, nil, 10000)

	suite.Equal(10000.0, report.FinalEquity)
	suite.Equal(0.0, report.TotalReturn)
	suite.Equal(0.0, report.SharpeRatio)
	suite.Equal(0.0, report.MaxDrawdown)
}

func (suite *PerformanceTestSuite) TestNoNaNOrInfInReport() {
	curves := [][]types.EquityPoint{
		nil,
		equityCurve(10000),
		equityCurve(10000, 10000),
		equityCurve(10000, 0, 10000),
		equityCurve(10000, 20000, 5000),
	}

	for _, equity := range curves {
		report := EvaluatePerformance(equity, nil, 10000)

		for name, v := range map[string]float64{
			"total_return":      report.TotalReturn,
			"annualized_return": report.AnnualizedReturn,
			"volatility":        report.Volatility,
			"sharpe_ratio":      report.SharpeRatio,
			"max_drawdown":      report.MaxDrawdown,
			"win_rate":          report.WinRate,
		} {
			suite.False(math.IsNaN(v), "%s is NaN", name)
			suite.False(math.IsInf(v, 0), "%s is Inf", name)
		}
	}
}
