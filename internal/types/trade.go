package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a position.
type Direction int

const (
	DirectionLong  Direction = 1
	DirectionShort Direction = -1
)

// String returns a human readable direction name.
func (d Direction) String() string {
	if d == DirectionShort {
		return "short"
	}

	return "long"
}

// ExitReason records which exit condition closed a trade.
type ExitReason string

const (
	// ExitReasonMeanReversion fires when price deviation reverts past half
	// the entry-side threshold.
	ExitReasonMeanReversion ExitReason = "mean_reversion"
	// ExitReasonRSICross fires when RSI crosses the neutral line against
	// the position's bias.
	ExitReasonRSICross ExitReason = "rsi_cross"
	// ExitReasonStopLoss fires when price deviation moves further adverse
	// than the stop multiple.
	ExitReasonStopLoss ExitReason = "stop_loss"
	// ExitReasonTimeStop fires when the holding period reaches the limit.
	ExitReasonTimeStop ExitReason = "time_stop"
	// ExitReasonForced closes any position left open at the end of the series.
	ExitReasonForced ExitReason = "forced"
)

// OpenPosition is the single mutable slot the simulator carries while a
// position is open. It is never persisted; closing it produces a Trade.
type OpenPosition struct {
	EntryDate   time.Time
	EntryPrice  float64
	Direction   Direction
	HoldingDays int
}

// Trade is one completed round trip. It is created exactly once, at close,
// and is immutable afterwards.
type Trade struct {
	EntryDate   time.Time  `csv:"entry_date" yaml:"entry_date"`
	ExitDate    time.Time  `csv:"exit_date" yaml:"exit_date"`
	EntryPrice  float64    `csv:"entry_price" yaml:"entry_price"`
	ExitPrice   float64    `csv:"exit_price" yaml:"exit_price"`
	Direction   Direction  `csv:"direction" yaml:"direction"`
	PnL         float64    `csv:"pnl" yaml:"pnl"`
	HoldingDays int        `csv:"holding_days" yaml:"holding_days"`
	ExitReason  ExitReason `csv:"exit_reason" yaml:"exit_reason"`
}

// CalendarDays returns the whole calendar days between two dates. The
// simulator recomputes this every bar rather than incrementing a counter,
// so non-trading-day gaps count toward the holding period.
func CalendarDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// UpdateHoldingPeriod recomputes the holding period as of the given date.
func (p *OpenPosition) UpdateHoldingPeriod(current time.Time) {
	p.HoldingDays = CalendarDays(p.EntryDate, current)
}

// Close converts the open position into an immutable Trade at the given
// exit bar. PnL is the direction-adjusted fractional return:
// (exit-entry)/entry for long, (entry-exit)/entry for short.
func (p *OpenPosition) Close(exitDate time.Time, exitPrice float64, reason ExitReason) Trade {
	entryDec := decimal.NewFromFloat(p.EntryPrice)
	exitDec := decimal.NewFromFloat(exitPrice)

	var pnlDec decimal.Decimal
	if p.Direction == DirectionLong {
		pnlDec = exitDec.Sub(entryDec).Div(entryDec)
	} else {
		pnlDec = entryDec.Sub(exitDec).Div(entryDec)
	}

	pnl, _ := pnlDec.Float64()

	return Trade{
		EntryDate:   p.EntryDate,
		ExitDate:    exitDate,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   exitPrice,
		Direction:   p.Direction,
		PnL:         pnl,
		HoldingDays: CalendarDays(p.EntryDate, exitDate),
		ExitReason:  reason,
	}
}
