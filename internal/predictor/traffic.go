package predictor

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"goldennet/internal/model"
	"goldennet/internal/phi"
)

// Timeframes accepted by Traffic.Predict.
const (
	TimeframeWeek    = "week"
	TimeframeMonth   = "month"
	TimeframeQuarter = "quarter"
	TimeframeYear    = "year"
)

var seasonalFactors = [12]float64{
	0.85, 0.9, 1.0, 1.0, 1.05, 0.95,
	0.9, 0.95, 1.05, 1.1, 1.25, 1.3,
}

// SeasonalFactor is the traffic multiplier of a calendar month.
func SeasonalFactor(m time.Month) float64 {
	if m < time.January || m > time.December {
		return 1
	}
	return seasonalFactors[m-1]
}

// TrafficResult is the outcome of Traffic.Predict.
type TrafficResult struct {
	CurrentVisits   int     `json:"current_visits"`
	PredictedVisits int     `json:"predicted_visits"`
	GrowthPercent   float64 `json:"growth_percent"`
	SeasonalFactor  float64 `json:"seasonal_factor"`
	Month           string  `json:"month"`
	Timeframe       string  `json:"timeframe"`
}

// Traffic projects visit counts.
type Traffic struct {
	clock func() time.Time
}

// NewTraffic returns a traffic predictor reading the month from clock.
// A nil clock means time.Now.
func NewTraffic(clock func() time.Time) *Traffic {
	if clock == nil {
		clock = time.Now
	}
	return &Traffic{clock: clock}
}

// Predict projects round(visits·φ·seasonal factor of the current month).
func (t *Traffic) Predict(currentVisits int, timeframe string) (TrafficResult, error) {
	if currentVisits <= 0 {
		return TrafficResult{}, errors.Wrapf(model.ErrInvalidArgument, "current visits must be > 0 (got %d)", currentVisits)
	}
	switch timeframe {
	case "":
		timeframe = TimeframeMonth
	case TimeframeWeek, TimeframeMonth, TimeframeQuarter, TimeframeYear:
	default:
		return TrafficResult{}, errors.Wrapf(model.ErrInvalidArgument, "unknown timeframe %q", timeframe)
	}
	month := t.clock().Month()
	factor := SeasonalFactor(month)
	predicted := int(math.Round(float64(currentVisits) * phi.Phi * factor))
	growth := float64(predicted-currentVisits) / float64(currentVisits) * 100
	return TrafficResult{
		CurrentVisits:   currentVisits,
		PredictedVisits: predicted,
		GrowthPercent:   phi.Round(growth, 1),
		SeasonalFactor:  factor,
		Month:           month.String(),
		Timeframe:       timeframe,
	}, nil
}
