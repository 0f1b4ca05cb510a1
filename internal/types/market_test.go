package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantmill/meanrev/pkg/errors"
)

type MarketTestSuite struct {
	suite.Suite
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(MarketTestSuite))
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func (suite *MarketTestSuite) TestValidateSeriesOK() {
	bars := []PriceBar{
		{Time: day(0), Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1000},
		{Time: day(1), Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 1200},
		{Time: day(4), Open: 101, High: 101.5, Low: 100, Close: 100.2, Volume: 900},
	}

	// Calendar gaps are fine, only ordering matters
	suite.NoError(ValidateSeries(bars))
}

func (suite *MarketTestSuite) TestValidateSeriesEmpty() {
	suite.NoError(ValidateSeries(nil))
	suite.NoError(ValidateSeries([]PriceBar{}))
}

func (suite *MarketTestSuite) TestValidateSeriesNonMonotonic() {
	bars := []PriceBar{
		{Time: day(1), Close: 100},
		{Time: day(0), Close: 101},
	}

	err := ValidateSeries(bars)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
	suite.Contains(err.Error(), "non-monotonic")
}

func (suite *MarketTestSuite) TestValidateSeriesDuplicateTimestamp() {
	bars := []PriceBar{
		{Time: day(0), Close: 100},
		{Time: day(0), Close: 101},
	}

	err := ValidateSeries(bars)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
}

func (suite *MarketTestSuite) TestValidateSeriesNegativePrice() {
	bars := []PriceBar{
		{Time: day(0), Open: 100, High: 101, Low: -1, Close: 100, Volume: 1000},
	}

	err := ValidateSeries(bars)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
	suite.Contains(err.Error(), "negative price")
}

func (suite *MarketTestSuite) TestValidateSeriesNegativeVolume() {
	bars := []PriceBar{
		{Time: day(0), Open: 100, High: 101, Low: 99, Close: 100, Volume: -5},
	}

	err := ValidateSeries(bars)
	suite.Error(err)
	suite.Contains(err.Error(), "negative volume")
}
