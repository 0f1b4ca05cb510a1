package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ZScoreTestSuite struct {
	suite.Suite
}

func TestZScoreSuite(t *testing.T) {
	suite.Run(t, new(ZScoreTestSuite))
}

func (suite *ZScoreTestSuite) TestNewZScore() {
	z := NewZScore()
	suite.Equal(20, z.Window())
}

func (suite *ZScoreTestSuite) TestNewZScoreWithInvalidWindow() {
	_, err := NewZScoreWithWindow(1)
	suite.Error(err)

	_, err = NewZScoreWithWindow(0)
	suite.Error(err)
}

func (suite *ZScoreTestSuite) TestUndefinedUntilWindowFilled() {
	z, err := NewZScoreWithWindow(5)
	suite.NoError(err)

	closes := []float64{1, 2, 3, 4, 5, 6, 7}
	mean, std, score := z.Series(closes)

	for i := 0; i < 4; i++ {
		suite.True(mean[i].IsNone(), "mean at %d", i)
		suite.True(std[i].IsNone(), "std at %d", i)
		suite.True(score[i].IsNone(), "score at %d", i)
	}

	for i := 4; i < 7; i++ {
		suite.True(mean[i].IsSome())
		suite.True(std[i].IsSome())
		suite.True(score[i].IsSome())
	}
}

func (suite *ZScoreTestSuite) TestConstantSeriesHasUndefinedScore() {
	z, err := NewZScoreWithWindow(4)
	suite.NoError(err)

	closes := []float64{50, 50, 50, 50, 50, 50}
	mean, std, score := z.Series(closes)

	for i := 3; i < len(closes); i++ {
		suite.Equal(50.0, mean[i].Unwrap())
		suite.Equal(0.0, std[i].Unwrap())
		// Zero std must yield undefined, never ±Inf
		suite.True(score[i].IsNone(), "score at %d must be undefined", i)
	}
}

func (suite *ZScoreTestSuite) TestKnownValue() {
	z, err := NewZScoreWithWindow(3)
	suite.NoError(err)

	mean, std, score := z.Series([]float64{1, 2, 3})

	suite.Equal(2.0, mean[2].Unwrap())
	// Sample std of {1,2,3} is 1
	suite.InDelta(1.0, std[2].Unwrap(), 1e-12)
	suite.InDelta(1.0, score[2].Unwrap(), 1e-12)
}

func (suite *ZScoreTestSuite) TestNeverEmitsNaNOrInf() {
	z, err := NewZScoreWithWindow(3)
	suite.NoError(err)

	// Flat stretch followed by a jump
	closes := []float64{10, 10, 10, 10, 12, 12, 12, 12, 9}
	_, _, score := z.Series(closes)

	for i, v := range score {
		if v.IsNone() {
			continue
		}

		value := v.Unwrap()
		suite.False(math.IsNaN(value), "NaN at %d", i)
		suite.False(math.IsInf(value, 0), "Inf at %d", i)
	}
}

func (suite *ZScoreTestSuite) TestNegativeScoreBelowMean() {
	z, err := NewZScoreWithWindow(3)
	suite.NoError(err)

	_, _, score := z.Series([]float64{10, 11, 3})
	suite.True(score[2].IsSome())
	suite.Negative(score[2].Unwrap())
}
