package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionStatus string

const (
	PositionStatusFlat PositionStatus = "FLAT"
	PositionStatusLong PositionStatus = "LONG"
)

type ExitReason string

const (
	ExitReasonSignal     ExitReason = "SIGNAL"
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
	ExitReasonTakeProfit ExitReason = "TAKE_PROFIT"
	ExitReasonEndOfData  ExitReason = "END_OF_DATA"
)

// Position is the mutable state of the single open holding. It is owned
// exclusively by the position simulator: created on entry, destroyed on exit.
type Position struct {
	Status          PositionStatus
	EntryPrice      float64
	EntryTime       time.Time
	Quantity        float64
	StopLossPrice   float64
	TakeProfitPrice float64
}

// IsLong reports whether a position is currently open.
func (p *Position) IsLong() bool {
	return p.Status == PositionStatusLong
}

// Trade is one completed round trip. It is immutable once appended to the
// ledger.
type Trade struct {
	ID         string     `csv:"id" yaml:"id"`
	Symbol     string     `csv:"symbol" yaml:"symbol"`
	EntryTime  time.Time  `csv:"entry_time" yaml:"entry_time"`
	ExitTime   time.Time  `csv:"exit_time" yaml:"exit_time"`
	EntryPrice float64    `csv:"entry_price" yaml:"entry_price"`
	ExitPrice  float64    `csv:"exit_price" yaml:"exit_price"`
	Quantity   float64    `csv:"quantity" yaml:"quantity"`
	ExitReason ExitReason `csv:"exit_reason" yaml:"exit_reason"`
	// RealizedPnL is (exit_price - entry_price) * quantity.
	RealizedPnL float64 `csv:"realized_pnl" yaml:"realized_pnl"`
}

// ComputeRealizedPnL calculates (exitPrice - entryPrice) * quantity using
// decimal arithmetic to avoid float drift on long ledgers.
func ComputeRealizedPnL(entryPrice, exitPrice, quantity float64) float64 {
	entryDec := decimal.NewFromFloat(entryPrice).Mul(decimal.NewFromFloat(quantity))
	exitDec := decimal.NewFromFloat(exitPrice).Mul(decimal.NewFromFloat(quantity))

	pnl, _ := exitDec.Sub(entryDec).Float64()

	return pnl
}

// EquityPoint is one mark-to-market observation of portfolio value. The
// equity curve carries one point per input bar, including bars with no trade.
type EquityPoint struct {
	Time  time.Time `csv:"time" yaml:"time"`
	Value float64   `csv:"value" yaml:"value"`
}
