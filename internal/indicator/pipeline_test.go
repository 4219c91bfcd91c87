package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/meridian-quant/volregime/internal/types"
)

type PipelineTestSuite struct {
	suite.Suite
	pipeline *Pipeline
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

func (suite *PipelineTestSuite) SetupTest() {
	pipeline, err := NewPipeline(DefaultPipelineConfig())
	suite.Require().NoError(err)
	suite.pipeline = pipeline
}

func barsFromCloses(closes []float64) []types.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}

	return bars
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}

	return closes
}

func (suite *PipelineTestSuite) TestEmptyInput() {
	enriched := suite.pipeline.Compute(nil)
	suite.Empty(enriched)

	enriched = suite.pipeline.Compute([]types.Bar{})
	suite.Empty(enriched)
}

func (suite *PipelineTestSuite) TestWarmupRowsDropped() {
	bars := barsFromCloses(flatCloses(100, 50.0))
	enriched := suite.pipeline.Compute(bars)

	warmup := DefaultPipelineConfig().WarmupBars()
	suite.Len(enriched, 100-warmup)
	// Output ordering matches input ordering, starting right after warm-up.
	suite.Equal(bars[warmup].Date, enriched[0].Date)
	suite.Equal(bars[len(bars)-1].Date, enriched[len(enriched)-1].Date)
}

func (suite *PipelineTestSuite) TestInputShorterThanWarmup() {
	bars := barsFromCloses(flatCloses(10, 50.0))
	enriched := suite.pipeline.Compute(bars)
	suite.Empty(enriched)
}

func (suite *PipelineTestSuite) TestFlatSeries() {
	bars := barsFromCloses(flatCloses(40, 50.0))
	enriched := suite.pipeline.Compute(bars)
	suite.Require().NotEmpty(enriched)

	for _, row := range enriched {
		suite.InDelta(0.0, row.Return, 1e-12)
		// Zero variance yields volatility exactly 0, not an error.
		suite.InDelta(0.0, row.Volatility, 1e-12)
		suite.InDelta(50.0, row.EMA, 1e-9)
		suite.InDelta(0.0, row.PriceDeviation, 1e-12)
		suite.InDelta(0.0, row.DeviationStd, 1e-12)
		// No losses in the window: RSI is pinned to 100.
		suite.InDelta(100.0, row.RSI, 1e-12)
		// Tied ranks resolve to the average fractional rank.
		suite.Greater(row.VolPercentile, 0.0)
		suite.LessOrEqual(row.VolPercentile, 1.0)
	}
}

func (suite *PipelineTestSuite) TestEMASeededByFirstClose() {
	closes := []float64{100, 110, 120}
	emaValues := ema(closes, 20)

	alpha := 2.0 / 21.0
	suite.InDelta(100.0, emaValues[0], 1e-12)
	suite.InDelta(alpha*110+(1-alpha)*100, emaValues[1], 1e-12)
}

func (suite *PipelineTestSuite) TestVolatilityAnnualized() {
	// Alternating +1%/-1% daily moves give a known return std.
	closes := make([]float64, 40)
	closes[0] = 100

	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] * 1.01
		} else {
			closes[i] = closes[i-1] * 0.99
		}
	}

	bars := barsFromCloses(closes)
	enriched := suite.pipeline.Compute(bars)
	suite.Require().NotEmpty(enriched)

	returns := make([]float64, 0, 20)
	idx := DefaultPipelineConfig().WarmupBars()

	for i := idx - 19; i <= idx; i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	suite.InDelta(windowStd(returns)*math.Sqrt(252), enriched[0].Volatility, 1e-9)
}

func (suite *PipelineTestSuite) TestBands() {
	bars := barsFromCloses(flatCloses(30, 50.0))
	enriched := suite.pipeline.Compute(bars)
	suite.Require().NotEmpty(enriched)

	for _, row := range enriched {
		suite.InDelta(row.EMA+2*row.Volatility, row.UpperBand, 1e-9)
		suite.InDelta(row.EMA-2*row.Volatility, row.LowerBand, 1e-9)
	}
}

func (suite *PipelineTestSuite) TestNewPipelineRejectsBadConfig() {
	config := DefaultPipelineConfig()
	config.VolatilityWindow = 0

	_, err := NewPipeline(config)
	suite.Error(err)
}

func TestRSIMonotonicSeries(t *testing.T) {
	up := make([]float64, 20)
	down := make([]float64, 20)

	for i := range up {
		up[i] = 100 + float64(i)
		down[i] = 100 - float64(i)
	}

	rsiUp := rsi(up, 14)
	rsiDown := rsi(down, 14)

	assert.True(t, math.IsNaN(rsiUp[13]))
	assert.InDelta(t, 100.0, rsiUp[19], 1e-12)
	assert.InDelta(t, 0.0, rsiDown[19], 1e-12)
}

func TestExpandingRankTies(t *testing.T) {
	values := []float64{1, 1, 1, 1}
	ranks := expandingRank(values)

	// All ties: rank n is (n+1)/(2n).
	assert.InDelta(t, 1.0, ranks[0], 1e-12)
	assert.InDelta(t, 0.75, ranks[1], 1e-12)
	assert.InDelta(t, (3.0+1)/(2*3), ranks[2], 1e-12)
	assert.InDelta(t, (4.0+1)/(2*4), ranks[3], 1e-12)
}

func TestExpandingRankNewMaximum(t *testing.T) {
	values := []float64{1, 2, 3}
	ranks := expandingRank(values)

	// A fresh maximum always ranks 1.0 in the expanding window.
	assert.InDelta(t, 1.0, ranks[1], 1e-12)
	assert.InDelta(t, 1.0, ranks[2], 1e-12)
}

func TestRollingStdFlatWindow(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5}
	stds := rollingStd(values, 3)

	assert.True(t, math.IsNaN(stds[1]))
	assert.InDelta(t, 0.0, stds[2], 1e-12)
	assert.InDelta(t, 0.0, stds[4], 1e-12)
}
