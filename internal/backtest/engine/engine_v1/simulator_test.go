package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/meridian-quant/volregime/internal/types"
)

type SimulatorTestSuite struct {
	suite.Suite
	simulator *Simulator
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) SetupTest() {
	simulator, err := NewSimulator(DefaultStrategyConfig())
	suite.Require().NoError(err)
	suite.simulator = simulator
}

var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testBar builds an enriched bar for day offset i with the handful of
// fields the simulator actually reads.
func testBar(i int, close, volPct, dev, devStd, rsiValue float64) types.EnrichedBar {
	d := seriesStart.AddDate(0, 0, i)

	return types.EnrichedBar{
		Bar: types.Bar{
			Date:   d,
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: 1000,
		},
		VolPercentile:  volPct,
		PriceDeviation: dev,
		DeviationStd:   devStd,
		RSI:            rsiValue,
	}
}

// neutralBar neither enters nor exits for any position.
func neutralBar(i int, close float64) types.EnrichedBar {
	return testBar(i, close, 0.1, -1.0, 1.0, 45)
}

func (suite *SimulatorTestSuite) TestShortSeriesYieldsNoTrades() {
	series := make([]types.EnrichedBar, 0, 10)
	for i := 0; i < 10; i++ {
		series = append(series, testBar(i, 100, 0.9, -2.0, 1.0, 20))
	}

	trades, counts := suite.simulator.Simulate(series)
	suite.Empty(trades)
	suite.Zero(counts.LongEntries)
}

func (suite *SimulatorTestSuite) TestEmptySeries() {
	trades, _ := suite.simulator.Simulate(nil)
	suite.Empty(trades)
}

func (suite *SimulatorTestSuite) TestWarmupBarsNeverEnter() {
	series := make([]types.EnrichedBar, 0, 25)

	// Entry conditions hold from the very first bar, but the first 20 bars
	// must be skipped.
	for i := 0; i < 20; i++ {
		series = append(series, testBar(i, 100, 0.9, -2.0, 1.0, 20))
	}

	for i := 20; i < 25; i++ {
		series = append(series, neutralBar(i, 100))
	}

	trades, counts := suite.simulator.Simulate(series)
	suite.Empty(trades)
	suite.Zero(counts.LongEntries)
}

func (suite *SimulatorTestSuite) TestLongRoundTripMeanReversionExit() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	// Bar 21: high-vol regime, oversold. Entry.
	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))
	// Bars 22-23: still stretched, no exit condition.
	series = append(series, testBar(21, 96, 0.85, -1.5, 1.0, 40))
	series = append(series, testBar(22, 96, 0.85, -1.2, 1.0, 40))
	// Bar 24: deviation reverted past -0.5*std. Mean-reversion exit.
	series = append(series, testBar(23, 99, 0.85, -0.2, 1.0, 40))
	series = append(series, neutralBar(24, 99))

	trades, counts := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal(types.DirectionLong, trade.Direction)
	suite.Equal(series[20].Date, trade.EntryDate)
	suite.Equal(series[23].Date, trade.ExitDate)
	suite.InDelta((99.0-95.0)/95.0, trade.PnL, 1e-12)
	suite.Equal(3, trade.HoldingDays)
	suite.Equal(types.ExitReasonMeanReversion, trade.ExitReason)
	suite.Equal(1, counts.LongEntries)
	suite.Equal(1, counts.Exits)
	suite.Zero(counts.ForcedExits)
}

func (suite *SimulatorTestSuite) TestShortRoundTrip() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	series = append(series, testBar(20, 110, 0.9, 2.0, 1.0, 80))
	series = append(series, testBar(21, 104, 0.9, 0.2, 1.0, 60))

	trades, counts := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal(types.DirectionShort, trade.Direction)
	suite.InDelta((110.0-104.0)/110.0, trade.PnL, 1e-12)
	// Short pnl positive iff exit below entry.
	suite.Positive(trade.PnL)
	suite.Equal(1, counts.ShortEntries)
}

func (suite *SimulatorTestSuite) TestForcedCloseAtSeriesEnd() {
	series := make([]types.EnrichedBar, 0, 50)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	// Entry at bar 21; the 5-bar tail stays stretched with RSI below
	// neutral and ends before the time stop, so no exit condition fires.
	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))
	for i := 21; i < 26; i++ {
		series = append(series, testBar(i, 96, 0.85, -1.5, 1.0, 40))
	}

	trades, counts := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal(types.ExitReasonForced, trade.ExitReason)
	suite.Equal(series[len(series)-1].Date, trade.ExitDate)
	suite.Equal(1, counts.ForcedExits)
}

func (suite *SimulatorTestSuite) TestTimeStop() {
	series := make([]types.EnrichedBar, 0, 40)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))

	// Ten stretched bars; the seventh calendar day triggers the time stop.
	for i := 21; i < 31; i++ {
		series = append(series, testBar(i, 96, 0.85, -1.5, 1.0, 40))
	}

	trades, _ := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)

	trade := trades[0]
	suite.Equal(types.ExitReasonTimeStop, trade.ExitReason)
	suite.Equal(7, trade.HoldingDays)
	suite.Equal(series[27].Date, trade.ExitDate)
}

func (suite *SimulatorTestSuite) TestStopLoss() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))
	// Deviation moves further adverse than 1.8x std.
	series = append(series, testBar(21, 90, 0.85, -2.5, 1.0, 40))

	trades, _ := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)
	suite.Equal(types.ExitReasonStopLoss, trades[0].ExitReason)
	suite.Negative(trades[0].PnL)
}

func (suite *SimulatorTestSuite) TestRSICrossExit() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))
	// Still stretched below -0.5*std, but RSI crossed the neutral line.
	series = append(series, testBar(21, 97, 0.85, -1.0, 1.0, 55))

	trades, _ := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)
	suite.Equal(types.ExitReasonRSICross, trades[0].ExitReason)
}

func (suite *SimulatorTestSuite) TestMeanReversionTakesPrecedenceOverRSI() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	series = append(series, testBar(20, 95, 0.85, -2.0, 1.0, 20))
	// Both the mean-reversion and RSI exits are true on the same bar.
	series = append(series, testBar(21, 99, 0.85, -0.2, 1.0, 60))

	trades, _ := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)
	suite.Equal(types.ExitReasonMeanReversion, trades[0].ExitReason)
}

func (suite *SimulatorTestSuite) TestNoSameBarReversal() {
	state := SimulatorState{Position: optional.Some(types.OpenPosition{
		EntryDate:  seriesStart,
		EntryPrice: 95,
		Direction:  types.DirectionLong,
	})}

	// This bar exits the long and would qualify as a short entry if
	// entries were evaluated after exits on the same bar.
	bar := testBar(3, 110, 0.9, 2.0, 1.0, 80)

	newState, closed := suite.simulator.Step(state, bar)
	suite.True(closed.IsSome())
	suite.True(newState.Position.IsNone())
}

func (suite *SimulatorTestSuite) TestNoEntryWhilePositionOpen() {
	state := FlatState()

	entryBar := testBar(0, 95, 0.9, -2.0, 1.0, 20)

	var closed optional.Option[types.Trade]

	state, closed = suite.simulator.Step(state, entryBar)
	suite.True(state.Position.IsSome())
	suite.True(closed.IsNone())

	firstEntry := state.Position.Unwrap()

	// Entry conditions hold again on the next bar (deviation between the
	// entry and stop thresholds, so no exit fires), but the open position
	// must be carried, not replaced.
	state, closed = suite.simulator.Step(state, testBar(1, 90, 0.9, -1.5, 1.0, 20))
	suite.True(closed.IsNone())
	suite.Require().True(state.Position.IsSome())
	suite.Equal(firstEntry.EntryDate, state.Position.Unwrap().EntryDate)
	suite.Equal(firstEntry.EntryPrice, state.Position.Unwrap().EntryPrice)
}

func (suite *SimulatorTestSuite) TestAtMostOnePositionThroughoutWalk() {
	series := make([]types.EnrichedBar, 0, 60)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	// Alternate entry-friendly and exit-friendly bars for the tail.
	for i := 20; i < 60; i++ {
		if i%2 == 0 {
			series = append(series, testBar(i, 95, 0.9, -2.0, 1.0, 20))
		} else {
			series = append(series, testBar(i, 99, 0.9, -0.1, 1.0, 40))
		}
	}

	state := FlatState()
	openCount := 0

	for i, bar := range series {
		if i < suite.simulator.config.WarmupBars() {
			continue
		}

		var closed optional.Option[types.Trade]

		state, closed = suite.simulator.Step(state, bar)

		if state.Position.IsSome() {
			openCount = 1
		} else {
			openCount = 0
		}

		suite.LessOrEqual(openCount, 1)

		if closed.IsSome() {
			// An exit bar always leaves the state flat.
			suite.True(state.Position.IsNone())
		}
	}
}

func (suite *SimulatorTestSuite) TestRegimeGateBlocksEntries() {
	series := make([]types.EnrichedBar, 0, 30)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	// Oversold and stretched, but the volatility percentile sits at the
	// gate; entries require strictly greater.
	for i := 20; i < 30; i++ {
		series = append(series, testBar(i, 95, 0.7, -2.0, 1.0, 20))
	}

	trades, counts := suite.simulator.Simulate(series)
	suite.Empty(trades)
	suite.Zero(counts.LongEntries)
	suite.Zero(counts.ShortEntries)
}

func (suite *SimulatorTestSuite) TestHoldingPeriodSpansCalendarGaps() {
	series := make([]types.EnrichedBar, 0, 25)
	for i := 0; i < 20; i++ {
		series = append(series, neutralBar(i, 100))
	}

	entry := testBar(20, 95, 0.85, -2.0, 1.0, 20)
	series = append(series, entry)

	// Next bar is four calendar days later (a long weekend).
	gapBar := testBar(24, 99, 0.85, -0.2, 1.0, 40)
	series = append(series, gapBar)

	trades, _ := suite.simulator.Simulate(series)
	suite.Require().Len(trades, 1)
	suite.Equal(4, trades[0].HoldingDays)
}
