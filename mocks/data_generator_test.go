package mocks

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantmill/meanrev/internal/types"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestSameSeedIsReproducible() {
	first := NewDataGenerator(7).Generate(DefaultConfig())
	second := NewDataGenerator(7).Generate(DefaultConfig())

	suite.Equal(first, second)
}

func (suite *DataGeneratorTestSuite) TestDifferentSeedsDiffer() {
	first := NewDataGenerator(1).Generate(DefaultConfig())
	second := NewDataGenerator(2).Generate(DefaultConfig())

	suite.NotEqual(first, second)
}

func (suite *DataGeneratorTestSuite) TestBarInvariants() {
	bars := GenerateOneYear()
	suite.Require().Len(bars, 252)

	for i, bar := range bars {
		suite.GreaterOrEqual(bar.High, math.Max(bar.Open, bar.Close), "bar %d", i)
		suite.LessOrEqual(bar.Low, math.Min(bar.Open, bar.Close), "bar %d", i)
		suite.Positive(bar.Low, "bar %d", i)
		suite.Positive(bar.Volume, "bar %d", i)

		if i > 0 {
			suite.True(bar.Time.After(bars[i-1].Time), "bar %d", i)
		}
	}
}

func (suite *DataGeneratorTestSuite) TestGeneratedSeriesIsValid() {
	suite.NoError(types.ValidateSeries(GenerateOneYear()))
}

func (suite *DataGeneratorTestSuite) TestTrendShiftsFinalPrice() {
	cfg := DefaultConfig()
	cfg.Volatility = 0.001

	cfg.Trend = 0.5
	bullish := NewDataGenerator(3).Generate(cfg)

	cfg.Trend = -0.5
	bearish := NewDataGenerator(3).Generate(cfg)

	suite.Greater(bullish[len(bullish)-1].Close, bearish[len(bearish)-1].Close)
}
