package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/quantmill/meanrev/internal/strategy"
	"github.com/quantmill/meanrev/internal/types"
)

// PositionSimulator is the state machine that turns signals into fills. It
// holds at most one open long position; all state is per-run and discarded
// when the run completes.
type PositionSimulator struct {
	cfg      strategy.Config
	symbol   string
	capital  float64
	position types.Position
	trades   []types.Trade
	equity   []types.EquityPoint
	tradeSeq int
}

func NewPositionSimulator(cfg strategy.Config, initialCapital float64, symbol string) *PositionSimulator {
	return &PositionSimulator{
		cfg:      cfg,
		symbol:   symbol,
		capital:  initialCapital,
		position: types.Position{Status: types.PositionStatusFlat},
	}
}

// Status returns the position status at the start of the next bar.
func (s *PositionSimulator) Status() types.PositionStatus {
	return s.position.Status
}

// Trades returns the completed round trips in entry order.
func (s *PositionSimulator) Trades() []types.Trade {
	return s.trades
}

// Equity returns one mark-to-market point per processed bar.
func (s *PositionSimulator) Equity() []types.EquityPoint {
	return s.equity
}

// ProcessBar advances the state machine by one bar. Exits are resolved
// before entries: stop-loss first, then take-profit, then a signal exit at
// the close. A bar that closed a position never opens a new one.
func (s *PositionSimulator) ProcessBar(bar types.PriceBar, signal types.Signal) {
	exited := false

	if s.position.IsLong() {
		switch {
		case bar.Low <= s.position.StopLossPrice:
			s.closePosition(bar.Time, s.position.StopLossPrice, types.ExitReasonStopLoss)

			exited = true
		case bar.High >= s.position.TakeProfitPrice:
			s.closePosition(bar.Time, s.position.TakeProfitPrice, types.ExitReasonTakeProfit)

			exited = true
		case signal.Type == types.SignalTypeExitLong:
			s.closePosition(bar.Time, bar.Close, types.ExitReasonSignal)

			exited = true
		}
	}

	if !exited && !s.position.IsLong() && signal.Type == types.SignalTypeEnterLong {
		s.openPosition(bar)
	}

	s.equity = append(s.equity, types.EquityPoint{
		Time:  bar.Time,
		Value: s.markToMarket(bar.Close),
	})
}

// Finalize closes any open position at the final bar's close. The last
// equity point is revalued at the realized exit price.
func (s *PositionSimulator) Finalize(lastBar types.PriceBar) {
	if !s.position.IsLong() {
		return
	}

	s.closePosition(lastBar.Time, lastBar.Close, types.ExitReasonEndOfData)

	if len(s.equity) > 0 {
		s.equity[len(s.equity)-1].Value = s.capital
	}
}

func (s *PositionSimulator) openPosition(bar types.PriceBar) {
	quantity := s.sizePosition(bar.Close)
	if quantity < 1 {
		// Not enough capital for a single share. Skip silently; the next
		// qualifying signal will be retried.
		return
	}

	s.position = types.Position{
		Status:          types.PositionStatusLong,
		EntryPrice:      bar.Close,
		EntryTime:       bar.Time,
		Quantity:        quantity,
		StopLossPrice:   bar.Close * (1 - s.cfg.StopLossPct),
		TakeProfitPrice: bar.Close * (1 + s.cfg.TakeProfitPct),
	}
	s.capital -= quantity * bar.Close
}

func (s *PositionSimulator) closePosition(exitTime time.Time, exitPrice float64, reason types.ExitReason) {
	s.tradeSeq++

	trade := types.Trade{
		ID:          fmt.Sprintf("T%04d", s.tradeSeq),
		Symbol:      s.symbol,
		EntryTime:   s.position.EntryTime,
		ExitTime:    exitTime,
		EntryPrice:  s.position.EntryPrice,
		ExitPrice:   exitPrice,
		Quantity:    s.position.Quantity,
		ExitReason:  reason,
		RealizedPnL: types.ComputeRealizedPnL(s.position.EntryPrice, exitPrice, s.position.Quantity),
	}

	s.trades = append(s.trades, trade)
	s.capital += s.position.Quantity * exitPrice
	s.position = types.Position{Status: types.PositionStatusFlat}
}

// sizePosition returns the whole-share quantity for an entry at the given
// price: the lesser of the max position value and the risk budget divided by
// the per-share stop distance, floored to whole shares.
func (s *PositionSimulator) sizePosition(entryPrice float64) float64 {
	maxPositionValue := s.cfg.MaxPositionSize * s.capital
	riskBudget := s.cfg.MaxPortfolioRisk * s.capital
	riskLimitedValue := riskBudget / (entryPrice * s.cfg.StopLossPct)

	positionValue := math.Min(maxPositionValue, riskLimitedValue)

	return math.Floor(positionValue / entryPrice)
}

func (s *PositionSimulator) markToMarket(closePrice float64) float64 {
	if s.position.IsLong() {
		return s.capital + s.position.Quantity*closePrice
	}

	return s.capital
}
