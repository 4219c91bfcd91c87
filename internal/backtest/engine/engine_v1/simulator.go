package engine

import (
	"github.com/moznion/go-optional"

	"github.com/meridian-quant/volregime/internal/types"
)

// SimulatorState is the full state carried between bars: either flat
// (Position is None) or holding exactly one open position. At most one
// position can ever be open; the step function enforces this structurally
// because entries are only evaluated in the flat branch.
type SimulatorState struct {
	Position optional.Option[types.OpenPosition]
}

// FlatState returns the initial simulator state.
func FlatState() SimulatorState {
	return SimulatorState{Position: optional.None[types.OpenPosition]()}
}

// Simulator walks an enriched bar series once and turns signals into a
// sequence of discrete trades. It holds no mutable state of its own; the
// walk is an explicit fold of Step over the series.
type Simulator struct {
	config StrategyConfig
}

// NewSimulator creates a simulator after validating the strategy config.
func NewSimulator(config StrategyConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Simulator{config: config}, nil
}

// Step advances the state machine by one bar and returns the new state plus
// the trade closed on this bar, if any. Exits are evaluated before entries
// and an exit never chains into a same-bar entry, so a position closed here
// leaves the state flat until at least the next bar.
func (s *Simulator) Step(state SimulatorState, bar types.EnrichedBar) (SimulatorState, optional.Option[types.Trade]) {
	if state.Position.IsSome() {
		position := state.Position.Unwrap()
		position.UpdateHoldingPeriod(bar.Date)

		if reason, exit := s.exitReason(position, bar); exit {
			trade := position.Close(bar.Date, bar.Close, reason)

			return FlatState(), optional.Some(trade)
		}

		return SimulatorState{Position: optional.Some(position)}, optional.None[types.Trade]()
	}

	if direction, entry := s.entryDirection(bar); entry {
		position := types.OpenPosition{
			EntryDate:   bar.Date,
			EntryPrice:  bar.Close,
			Direction:   direction,
			HoldingDays: 0,
		}

		return SimulatorState{Position: optional.Some(position)}, optional.None[types.Trade]()
	}

	return state, optional.None[types.Trade]()
}

// Simulate folds Step over the series and returns every completed trade in
// order. The first WarmupBars bars are skipped so no decision is made on a
// partially warmed indicator set; a series shorter than the warm-up window
// therefore yields zero trades, not an error. Any position still open at
// the final bar is force-closed.
func (s *Simulator) Simulate(series []types.EnrichedBar) ([]types.Trade, types.SignalCounts) {
	state := FlatState()
	trades := []types.Trade{}
	counts := types.SignalCounts{}

	for i, bar := range series {
		if i < s.config.WarmupBars() {
			continue
		}

		wasFlat := state.Position.IsNone()

		var closed optional.Option[types.Trade]

		state, closed = s.Step(state, bar)

		if closed.IsSome() {
			trade := closed.Unwrap()
			trades = append(trades, trade)
			counts.Exits++
		} else if wasFlat && state.Position.IsSome() {
			if state.Position.Unwrap().Direction == types.DirectionLong {
				counts.LongEntries++
			} else {
				counts.ShortEntries++
			}
		}
	}

	// Forced close at the end of the series, even if no exit condition fired.
	if state.Position.IsSome() && len(series) > 0 {
		last := series[len(series)-1]
		position := state.Position.Unwrap()
		trades = append(trades, position.Close(last.Date, last.Close, types.ExitReasonForced))
		counts.Exits++
		counts.ForcedExits++
	}

	return trades, counts
}

// exitReason evaluates the exit conditions in precedence order. All
// conditions lead to the same action; the order only matters for the
// reason recorded on the trade.
func (s *Simulator) exitReason(position types.OpenPosition, bar types.EnrichedBar) (types.ExitReason, bool) {
	threshold := s.config.ExitDeviationMultiplier * bar.DeviationStd
	stop := s.config.StopLossMultiplier * bar.DeviationStd

	switch position.Direction {
	case types.DirectionLong:
		if bar.PriceDeviation > -threshold {
			return types.ExitReasonMeanReversion, true
		}

		if bar.RSI > s.config.RSINeutral {
			return types.ExitReasonRSICross, true
		}

		if bar.PriceDeviation < -stop {
			return types.ExitReasonStopLoss, true
		}
	case types.DirectionShort:
		if bar.PriceDeviation < threshold {
			return types.ExitReasonMeanReversion, true
		}

		if bar.RSI < s.config.RSINeutral {
			return types.ExitReasonRSICross, true
		}

		if bar.PriceDeviation > stop {
			return types.ExitReasonStopLoss, true
		}
	}

	if position.HoldingDays >= s.config.MaxHoldingDays {
		return types.ExitReasonTimeStop, true
	}

	return "", false
}

// entryDirection evaluates the entry conditions while flat. Long and short
// are mutually exclusive by the sign of the deviation threshold; long is
// evaluated first.
func (s *Simulator) entryDirection(bar types.EnrichedBar) (types.Direction, bool) {
	if bar.VolPercentile <= s.config.RegimePercentile {
		return 0, false
	}

	threshold := s.config.EntryDeviationMultiplier * bar.DeviationStd

	if bar.PriceDeviation < -threshold && bar.RSI < s.config.RSIOversold {
		return types.DirectionLong, true
	}

	if bar.PriceDeviation > threshold && bar.RSI > s.config.RSIOverbought {
		return types.DirectionShort, true
	}

	return 0, false
}
