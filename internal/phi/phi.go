// Package phi holds the golden-ratio numeric utilities shared by the network
// and the predictors. Every function is pure.
package phi

import "math"

const (
	// Phi is the golden ratio.
	Phi = 1.618033988749895
	// InvPhi is 1/Phi, the initial learning rate and its decay factor.
	InvPhi = 1 / Phi
	// PhiSquared is Phi².
	PhiSquared = Phi * Phi
	// PhiCubed is Phi³.
	PhiCubed = PhiSquared * Phi
)

// patternTolerance bounds |ratio-Phi| for a pair to count as a pattern.
const patternTolerance = 0.1

// Multiply returns v·φ.
func Multiply(v float64) float64 { return v * Phi }

// Divide returns v/φ.
func Divide(v float64) float64 { return v / Phi }

// Power returns v·φ².
func Power(v float64) float64 { return v * PhiSquared }

// Round rounds v to the given number of decimal places, half away from zero.
// The scaled value is first rounded to 15 significant digits, so decimal
// halves stored just below .5 (1.005 is 1.00499...) still round up.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	r := v * p
	if math.IsInf(r, 0) {
		return v
	}
	if r != 0 {
		s := math.Pow(10, 14-math.Floor(math.Log10(math.Abs(r))))
		if pre := math.Round(r*s) / s; !math.IsInf(pre, 0) && !math.IsNaN(pre) {
			r = pre
		}
	}
	return math.Round(r) / p
}

// Fibonacci returns the first n terms of 1, 1, 2, 3, 5, ... Terms past the
// 1476th exceed the float64 range and are +Inf.
func Fibonacci(n int) []float64 {
	if n <= 0 {
		return nil
	}
	seq := make([]float64, n)
	for i := range seq {
		if i < 2 {
			seq[i] = 1
			continue
		}
		seq[i] = seq[i-1] + seq[i-2]
	}
	return seq
}

// FibonacciRound returns the Fibonacci number closest to v. Terms are generated
// until one exceeds 2v; ties keep the first term reached. Values below 1 give
// 1, +Inf gives +Inf and NaN gives NaN.
func FibonacciRound(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return v
	case math.IsInf(v, 1):
		return v
	}
	best := 1.0
	bestDist := math.Abs(v - best)
	a, b := 1.0, 1.0
	for {
		if d := math.Abs(v - b); d < bestDist {
			best, bestDist = b, d
		}
		if b > 2*v || math.IsInf(b, 0) {
			return best
		}
		a, b = b, a+b
	}
}

// Split is a value divided in golden proportion.
type Split struct {
	Larger  float64 `json:"larger"`
	Smaller float64 `json:"smaller"`
}

// ProportionSplit divides v so that Larger/Smaller == φ and Larger+Smaller == v.
func ProportionSplit(v float64) Split {
	return Split{
		Larger:  v * Phi / (Phi + 1),
		Smaller: v / (Phi + 1),
	}
}

// Pattern marks a step in a series whose growth ratio is close to φ.
type Pattern struct {
	// Index of the second element of the pair.
	Index      int     `json:"index"`
	Ratio      float64 `json:"ratio"`
	Confidence float64 `json:"confidence"`
}

// DetectPatterns scans adjacent pairs (a, b) of series and reports the ones
// where b/a lies within 0.1 of φ. Pairs with a == 0 are skipped.
func DetectPatterns(series []float64) []Pattern {
	var patterns []Pattern
	for i := 0; i+1 < len(series); i++ {
		a, b := series[i], series[i+1]
		if a == 0 {
			continue
		}
		ratio := b / a
		dist := math.Abs(ratio - Phi)
		if dist >= patternTolerance {
			continue
		}
		patterns = append(patterns, Pattern{
			Index:      i + 1,
			Ratio:      ratio,
			Confidence: Round((1-dist)*100, 1),
		})
	}
	return patterns
}

// FibonacciWeightedAverage weights values[i] by the i-th Fibonacci number,
// with the weights normalized to sum to one. Later values weigh more. The
// running sums are rescaled as the weights grow, so series of any length stay
// finite.
func FibonacciWeightedAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	const rescaleAbove, rescaleBy = 1e200, 1e-200
	var sum, total float64
	a, b := 1.0, 1.0
	for i, v := range values {
		w := a
		if i > 0 {
			w = b
			a, b = b, a+b
		}
		sum += v * w
		total += w
		if b > rescaleAbove {
			a, b = a*rescaleBy, b*rescaleBy
			sum, total = sum*rescaleBy, total*rescaleBy
		}
	}
	return sum / total
}
