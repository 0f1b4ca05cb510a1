package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v3"

	backtestengine "github.com/quantmill/meanrev/internal/backtest/engine"
	"github.com/quantmill/meanrev/internal/types"
	"github.com/quantmill/meanrev/mocks"
	"github.com/quantmill/meanrev/pkg/errors"
)

const testEngineConfig = `
initial_capital: 10000
symbol: TEST
`

type BacktestV1TestSuite struct {
	suite.Suite
}

func TestBacktestV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestV1TestSuite))
}

func barIterator(bars []types.PriceBar) func(yield func(types.PriceBar, error) bool) {
	return func(yield func(types.PriceBar, error) bool) {
		for _, bar := range bars {
			if !yield(bar, nil) {
				return
			}
		}
	}
}

func (suite *BacktestV1TestSuite) newEngineWithBars(bars []types.PriceBar) *BacktestEngineV1 {
	ctrl := gomock.NewController(suite.T())
	source := mocks.NewMockDataSource(ctrl)
	source.EXPECT().Count(gomock.Any(), gomock.Any()).Return(len(bars), nil).AnyTimes()
	source.EXPECT().ReadAll(gomock.Any(), gomock.Any()).DoAndReturn(
		func(start, end optional.Option[time.Time]) func(yield func(types.PriceBar, error) bool) {
			return barIterator(bars)
		}).AnyTimes()

	eng := NewBacktestEngineV1()
	suite.Require().NoError(eng.Initialize(testEngineConfig))
	suite.Require().NoError(eng.SetDataSource(source))

	v1, ok := eng.(*BacktestEngineV1)
	suite.Require().True(ok)

	return v1
}

// constantBars returns a series with identical closes, which can never
// produce a defined z-score.
func constantBars(count int, price, volume float64) []types.PriceBar {
	bars := make([]types.PriceBar, count)
	for i := range bars {
		bars[i] = flatBar(i, price, volume)
	}

	return bars
}

// oversoldScenario builds a stable series followed by a crash bar that
// satisfies every entry condition at index 20.
func oversoldScenario(tail ...types.PriceBar) []types.PriceBar {
	bars := constantBars(20, 100, 1000)
	bars = append(bars, types.PriceBar{
		Time: day(20), Open: 99, High: 99, Low: 79, Close: 80, Volume: 2000,
	})

	return append(bars, tail...)
}

func (suite *BacktestV1TestSuite) TestConstantSeriesProducesNoTrades() {
	eng := suite.newEngineWithBars(constantBars(40, 100, 1000))

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	suite.Empty(result.Trades)
	suite.Len(result.Equity, 40)
	suite.Equal(0.0, result.Report.TotalReturn)
	suite.Equal(0, result.Report.NumberOfTrades)
	suite.Equal(10000.0, result.Report.FinalEquity)
}

func (suite *BacktestV1TestSuite) TestOversoldBarOpensPosition() {
	// A calm bar after the crash keeps the position open until end of data.
	last := types.PriceBar{Time: day(21), Open: 80, High: 81, Low: 79, Close: 80.5, Volume: 1000}
	eng := suite.newEngineWithBars(oversoldScenario(last))

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(day(20), trade.EntryTime)
	suite.InDelta(80.0, trade.EntryPrice, 1e-9)
	suite.Equal(6.0, trade.Quantity)
	suite.Equal(types.ExitReasonEndOfData, trade.ExitReason)
	suite.InDelta(80.5, trade.ExitPrice, 1e-9)
	suite.Equal("TEST", trade.Symbol)
}

func (suite *BacktestV1TestSuite) TestStopLossExitThroughEngine() {
	crash := types.PriceBar{Time: day(21), Open: 79, High: 79.5, Low: 77, Close: 77.5, Volume: 1000}
	last := types.PriceBar{Time: day(22), Open: 78, High: 78, Low: 78, Close: 78, Volume: 1000}
	eng := suite.newEngineWithBars(oversoldScenario(crash, last))

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.ExitReasonStopLoss, trade.ExitReason)
	// stop at 80 * 0.97
	suite.InDelta(77.6, trade.ExitPrice, 1e-9)
	suite.InDelta(-14.4, trade.RealizedPnL, 1e-9)
	suite.True(trade.ExitTime.After(trade.EntryTime))
}

func (suite *BacktestV1TestSuite) TestEntryOnFinalBarIsSkipped() {
	eng := suite.newEngineWithBars(oversoldScenario())

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	// crash bar is the last bar; entering would produce a zero-length trade
	suite.Empty(result.Trades)
}

func (suite *BacktestV1TestSuite) TestMalformedSeriesAbortsBeforeSimulation() {
	bars := constantBars(5, 100, 1000)
	bars[3].Time = bars[1].Time // break strict ordering

	eng := suite.newEngineWithBars(bars)

	_, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
}

func (suite *BacktestV1TestSuite) TestRunWithoutDataSourceFails() {
	eng := NewBacktestEngineV1()
	suite.Require().NoError(eng.Initialize(testEngineConfig))

	_, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))
}

func (suite *BacktestV1TestSuite) TestProgressCallbackSeesEveryBar() {
	bars := constantBars(10, 100, 1000)
	eng := suite.newEngineWithBars(bars)

	var seen []int

	onBar := backtestengine.OnBarCallback(func(current, total int) {
		suite.Equal(10, total)
		seen = append(seen, current)
	})

	_, err := eng.Run(optional.Some(onBar))
	suite.Require().NoError(err)
	suite.Len(seen, 10)
	suite.Equal(1, seen[0])
	suite.Equal(10, seen[9])
}

func (suite *BacktestV1TestSuite) TestDeterminism() {
	last := types.PriceBar{Time: day(21), Open: 80, High: 81, Low: 79, Close: 80.5, Volume: 1000}
	bars := oversoldScenario(last)

	first, err := suite.newEngineWithBars(bars).Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	second, err := suite.newEngineWithBars(bars).Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	suite.Equal(first.Trades, second.Trades)
	suite.Equal(first.Equity, second.Equity)

	// The run identifier and wall-clock timestamp are the only
	// non-deterministic fields; everything derived must serialize
	// byte-identically.
	normalize := func(r types.PerformanceReport) []byte {
		r.ID = ""
		r.Timestamp = time.Time{}
		data, err := yaml.Marshal(r)
		suite.Require().NoError(err)

		return data
	}

	suite.Equal(normalize(first.Report), normalize(second.Report))
}

func (suite *BacktestV1TestSuite) TestNoOpenPositionInFinalLedger() {
	last := types.PriceBar{Time: day(21), Open: 80, High: 81, Low: 79, Close: 80.5, Volume: 1000}
	eng := suite.newEngineWithBars(oversoldScenario(last))

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	for _, trade := range result.Trades {
		suite.False(trade.ExitTime.IsZero())
		suite.True(trade.ExitTime.After(trade.EntryTime))
	}
}

func (suite *BacktestV1TestSuite) TestGetConfigSchema() {
	eng := NewBacktestEngineV1()
	suite.Require().NoError(eng.Initialize(testEngineConfig))

	schema, err := eng.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "initial_capital")
}

func (suite *BacktestV1TestSuite) TestWriteResults() {
	last := types.PriceBar{Time: day(21), Open: 80, High: 81, Low: 79, Close: 80.5, Volume: 1000}
	eng := suite.newEngineWithBars(oversoldScenario(last))

	result, err := eng.Run(optional.None[backtestengine.OnBarCallback]())
	suite.Require().NoError(err)

	dir := suite.T().TempDir()
	suite.Require().NoError(eng.WriteResults(result, dir))

	suite.FileExists(dir + "/report.yaml")
	suite.FileExists(dir + "/trades.parquet")
	suite.FileExists(dir + "/equity.parquet")
}
