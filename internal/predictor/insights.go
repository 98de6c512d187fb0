package predictor

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"goldennet/internal/phi"
)

// Priority orders insights. High sorts first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityInfo   Priority = "info"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// Insight types.
const (
	InsightPricing = "pricing"
	InsightContent = "content"
	InsightTraffic = "traffic"
	InsightPattern = "pattern"
	InsightTrend   = "trend"
)

// Insight is one ranked recommendation.
type Insight struct {
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// InsightRequest holds the inputs of every predictor. A zero BasePrice,
// empty ContentType or zero CurrentVisits skips that predictor; a History
// shorter than two points skips pattern detection.
type InsightRequest struct {
	BasePrice     float64      `json:"base_price"`
	PriceContext  PriceContext `json:"price_context"`
	ContentType   string       `json:"content_type"`
	ContentLength int          `json:"content_length"`
	CurrentVisits int          `json:"current_visits"`
	Timeframe     string       `json:"timeframe"`
	History       []float64    `json:"history"`
}

// priceDriftThreshold is the relative price change worth a medium insight.
const priceDriftThreshold = 0.1

// Insights composes the other predictors into a ranked list.
type Insights struct {
	price   *Price
	content *ContentLength
	traffic *Traffic
}

// NewInsights wires the aggregator. A nil price predictor disables pricing
// insights.
func NewInsights(price *Price, content *ContentLength, traffic *Traffic) *Insights {
	if content == nil {
		content = NewContentLength()
	}
	if traffic == nil {
		traffic = NewTraffic(nil)
	}
	return &Insights{price: price, content: content, traffic: traffic}
}

// Aggregate runs every applicable predictor and returns the insights ordered
// high, medium, info. Insights of equal priority keep their generation order:
// pricing, content, traffic, pattern, trend.
func (a *Insights) Aggregate(req InsightRequest) ([]Insight, error) {
	var out []Insight

	if req.BasePrice != 0 && a.price != nil {
		res, err := a.price.Predict(req.BasePrice, req.PriceContext)
		if err != nil {
			return nil, errors.WithMessage(err, "pricing insight")
		}
		out = append(out, pricingInsight(req.BasePrice, res))
	}

	if req.ContentType != "" {
		res, err := a.content.Predict(req.ContentType, req.ContentLength)
		if err != nil {
			return nil, errors.WithMessage(err, "content insight")
		}
		out = append(out, contentInsight(res))
	}

	if req.CurrentVisits != 0 {
		res, err := a.traffic.Predict(req.CurrentVisits, req.Timeframe)
		if err != nil {
			return nil, errors.WithMessage(err, "traffic insight")
		}
		out = append(out, trafficInsight(res))
	}

	if len(req.History) >= 2 {
		out = append(out, patternInsight(phi.DetectPatterns(req.History)))
		out = append(out, trendInsight(req.History))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() < out[j].Priority.rank()
	})
	return out, nil
}

func pricingInsight(base float64, res PriceResult) Insight {
	drift := (res.OptimalPrice - base) / base
	if math.Abs(drift) < priceDriftThreshold {
		return Insight{InsightPricing, PriorityInfo,
			fmt.Sprintf("Price %.2f is within %.0f%% of the predicted optimum %.2f", base, priceDriftThreshold*100, res.OptimalPrice)}
	}
	verb := "Raise"
	if drift < 0 {
		verb = "Lower"
	}
	return Insight{InsightPricing, PriorityMedium,
		fmt.Sprintf("%s price from %.2f to %.2f; offer tiers %.2f / %.2f / %.2f",
			verb, base, res.OptimalPrice, res.Variants.Budget, res.Variants.Standard, res.Variants.Premium)}
}

func contentInsight(res ContentLengthResult) Insight {
	switch res.QualityScore {
	case QualityExcellent:
		return Insight{InsightContent, PriorityInfo,
			fmt.Sprintf("%s length %d words is at the golden-ratio optimum of %d", res.ContentType, res.CurrentLength, res.Optimal)}
	case QualityGood:
		return Insight{InsightContent, PriorityMedium,
			fmt.Sprintf("%s length %d words is close to the optimum of %d; adjust toward it", res.ContentType, res.CurrentLength, res.Optimal)}
	}
	return Insight{InsightContent, PriorityHigh,
		fmt.Sprintf("%s length %d words is far from the optimum of %d (range %d-%d)", res.ContentType, res.CurrentLength, res.Optimal, res.Min, res.Max)}
}

// goldenGrowth is the growth percentage of one φ step.
var goldenGrowth = (phi.Phi - 1) * 100

func trafficInsight(res TrafficResult) Insight {
	switch {
	case res.GrowthPercent < 0:
		return Insight{InsightTraffic, PriorityHigh,
			fmt.Sprintf("Traffic is projected to fall to %d visits (%.1f%%) this %s", res.PredictedVisits, res.GrowthPercent, res.Timeframe)}
	case res.GrowthPercent < goldenGrowth:
		return Insight{InsightTraffic, PriorityMedium,
			fmt.Sprintf("Projected growth of %.1f%% to %d visits is below the golden target of %.1f%% (%s seasonality %.2f)",
				res.GrowthPercent, res.PredictedVisits, goldenGrowth, res.Month, res.SeasonalFactor)}
	}
	return Insight{InsightTraffic, PriorityInfo,
		fmt.Sprintf("Traffic is projected to grow %.1f%% to %d visits this %s", res.GrowthPercent, res.PredictedVisits, res.Timeframe)}
}

func patternInsight(patterns []phi.Pattern) Insight {
	if len(patterns) == 0 {
		return Insight{InsightPattern, PriorityInfo, "No golden-ratio growth steps found in the history"}
	}
	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return Insight{InsightPattern, PriorityMedium,
		fmt.Sprintf("Found %d golden-ratio growth steps; strongest at index %d (ratio %.3f, confidence %.1f%%)",
			len(patterns), best.Index, best.Ratio, best.Confidence)}
}

func trendInsight(history []float64) Insight {
	avg := phi.FibonacciWeightedAverage(history)
	last := history[len(history)-1]
	if avg > 0 && last < phi.Divide(avg) {
		return Insight{InsightTrend, PriorityHigh,
			fmt.Sprintf("Latest value %.2f dropped below the weighted trend %.2f by more than a golden step", last, avg)}
	}
	return Insight{InsightTrend, PriorityInfo,
		fmt.Sprintf("Fibonacci-weighted trend average is %.2f (latest %.2f)", avg, last)}
}
