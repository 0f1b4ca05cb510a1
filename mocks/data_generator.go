package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/quantmill/meanrev/internal/types"
)

// DataGenerator generates realistic daily price series for testing and
// benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how price bars are generated.
type GeneratorConfig struct {
	// StartTime is the beginning of the series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily volatility)
	Volatility float64
	// Trend is the drift factor (-0.01 to 0.01 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration for daily bars.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.015,
		Trend:          0.0,
		VolumeBase:     1000000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a slice of PriceBar based on the configuration. The
// series follows a geometric Brownian motion model so indicator behavior
// resembles real market data.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.PriceBar {
	bars := make([]types.PriceBar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normally distributed shock
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.PriceBar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// GenerateOneYear is a convenience function generating 252 daily bars with a
// fixed seed for reproducibility.
func GenerateOneYear() []types.PriceBar {
	gen := NewDataGenerator(42)

	return gen.Generate(DefaultConfig())
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
