package predictor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldennet/internal/engine"
	"goldennet/internal/model"
	"goldennet/internal/phi"
	"goldennet/internal/store"
)

type fixedForwarder struct {
	out      []float64
	lastSeen []float64
}

func (f *fixedForwarder) Predict(input []float64) ([]float64, error) {
	f.lastSeen = append([]float64(nil), input...)
	return f.out, nil
}

func month(m time.Month) func() time.Time {
	return func() time.Time { return time.Date(2026, m, 15, 0, 0, 0, 0, time.UTC) }
}

func TestPriceFeatures(t *testing.T) {
	fwd := &fixedForwarder{out: []float64{0.75}}
	_, err := NewPrice(fwd).Predict(250, PriceContext{HistoricalConversion: 0.2, MarketFactor: 1.1, SeasonalFactor: 0.9})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.2, 1.1, 0.9, phi.Phi / 2, 0, 0, 0, 0, 0}, fwd.lastSeen)

	_, err = NewPrice(fwd).Predict(250, PriceContext{})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.5, 1, 1, phi.Phi / 2, 0, 0, 0, 0, 0}, fwd.lastSeen)
}

func TestPricePredict(t *testing.T) {
	res, err := NewPrice(&fixedForwarder{out: []float64{0.75, 0.1}}).Predict(1000, PriceContext{})
	require.NoError(t, err)
	assert.Equal(t, 1213.52, res.OptimalPrice)
	assert.Equal(t, 1213.52, res.Variants.Standard)
	assert.InDelta(t, 1000/phi.Phi, res.Variants.Budget, 1e-9)
	assert.InDelta(t, 1213.52*phi.Phi, res.Variants.Premium, 1e-9)
	assert.Equal(t, 75.0, res.Confidence)
}

func TestPriceVariantOrdering(t *testing.T) {
	for p := 0.4; p <= 2.0; p += 0.05 {
		res, err := NewPrice(&fixedForwarder{out: []float64{p}}).Predict(1000, PriceContext{})
		require.NoError(t, err)
		assert.Greaterf(t, res.Variants.Premium, res.Variants.Standard, "p=%.2f", p)
		assert.Greaterf(t, res.Variants.Standard, res.Variants.Budget, "p=%.2f", p)
	}
}

func TestPriceRejectsNonPositive(t *testing.T) {
	p := NewPrice(&fixedForwarder{out: []float64{1}})
	for _, base := range []float64{0, -10} {
		_, err := p.Predict(base, PriceContext{})
		assert.True(t, errors.Is(err, model.ErrInvalidArgument), "base %v: %v", base, err)
	}
	_, err := NewPrice(&fixedForwarder{}).Predict(10, PriceContext{})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestPriceWithEngine(t *testing.T) {
	e, err := engine.New(context.Background(), engine.Options{
		InputSize:  PriceFeatureSize,
		Seed:       1,
		Repository: store.NewMemoryStore(0),
	})
	require.NoError(t, err)
	res, err := NewPrice(e).Predict(1000, PriceContext{HistoricalConversion: 0.03})
	require.NoError(t, err)
	assert.Greater(t, res.OptimalPrice, 0.0)
	assert.LessOrEqual(t, res.OptimalPrice, 1618.03)
	assert.True(t, res.Confidence >= 0 && res.Confidence <= 100)
	assert.Greater(t, res.Variants.Premium, res.Variants.Standard)
}

func TestContentLengthBlog(t *testing.T) {
	res, err := NewContentLength().Predict("blog", 1294)
	require.NoError(t, err)
	assert.Equal(t, 1294, res.Optimal)
	assert.Equal(t, 494, res.Min)
	assert.Equal(t, 2094, res.Max)
	assert.Equal(t, QualityExcellent, res.QualityScore)
	assert.Equal(t, 8, res.Sections)
	assert.InDelta(t, 1294, res.Split.Larger+res.Split.Smaller, 1e-9)
}

func TestContentLengthQuality(t *testing.T) {
	c := NewContentLength()
	cases := []struct {
		kind    string
		current int
		want    int
	}{
		{"blog", 1200, QualityExcellent},
		{"blog", 1000, QualityGood},
		{"blog", 400, QualityPoor},
		{"blog", 0, QualityPoor},
		{"product", 485, QualityExcellent},
		{"Tutorial", 1942, QualityExcellent},
	}
	for _, tc := range cases {
		res, err := c.Predict(tc.kind, tc.current)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, res.QualityScore, "%s/%d", tc.kind, tc.current)
	}
}

func TestContentLengthUnknownType(t *testing.T) {
	res, err := NewContentLength().Predict("podcast", 10)
	require.NoError(t, err)
	assert.Equal(t, 1294, res.Optimal)

	_, err = NewContentLength().Predict("blog", -1)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestTrafficPredict(t *testing.T) {
	res, err := NewTraffic(month(time.November)).Predict(1000, "")
	require.NoError(t, err)
	assert.Equal(t, 2023, res.PredictedVisits)
	assert.Equal(t, 102.3, res.GrowthPercent)
	assert.Equal(t, 1.25, res.SeasonalFactor)
	assert.Equal(t, "November", res.Month)
	assert.Equal(t, TimeframeMonth, res.Timeframe)

	res, err = NewTraffic(month(time.January)).Predict(1000, TimeframeWeek)
	require.NoError(t, err)
	assert.Equal(t, 1375, res.PredictedVisits)
	assert.Equal(t, 37.5, res.GrowthPercent)
	assert.Equal(t, TimeframeWeek, res.Timeframe)
}

func TestTrafficRejectsBadInput(t *testing.T) {
	tr := NewTraffic(month(time.May))
	_, err := tr.Predict(0, TimeframeMonth)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	_, err = tr.Predict(-3, TimeframeMonth)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	_, err = tr.Predict(10, "decade")
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
}

func TestSeasonalFactor(t *testing.T) {
	assert.Equal(t, 0.85, SeasonalFactor(time.January))
	assert.Equal(t, 1.3, SeasonalFactor(time.December))
	assert.Equal(t, 1.0, SeasonalFactor(time.Month(13)))
}
