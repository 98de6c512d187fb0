package predictor

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"goldennet/internal/model"
	"goldennet/internal/phi"
)

// DefaultBaseLength is used for unknown content types.
const DefaultBaseLength = 800

// wordsPerSection sizes the suggested section count.
const wordsPerSection = 150

// BaseLengths are the reference word counts per content type.
var BaseLengths = map[string]int{
	"blog":     800,
	"product":  300,
	"page":     500,
	"tutorial": 1200,
	"landing":  600,
	"email":    200,
	"social":   100,
}

// Quality scores reported by ContentLength.
const (
	QualityExcellent = 95
	QualityGood      = 80
	QualityPoor      = 60
)

// ContentLengthResult is the outcome of ContentLength.Predict.
type ContentLengthResult struct {
	ContentType   string `json:"content_type"`
	CurrentLength int    `json:"current_length"`
	Optimal       int    `json:"optimal"`
	Min           int    `json:"min"`
	Max           int    `json:"max"`
	QualityScore  int    `json:"quality_score"`
	// Sections is a Fibonacci number of sections for the optimal length.
	Sections int `json:"sections"`
	// Split divides the optimal length into body and supporting words.
	Split phi.Split `json:"split"`
}

// ContentLength recommends word counts per content type.
type ContentLength struct{}

// NewContentLength returns a content length predictor.
func NewContentLength() *ContentLength { return &ContentLength{} }

// Predict sizes content of the given type around round(base·φ) and scores
// how close currentLength is to it.
func (c *ContentLength) Predict(contentType string, currentLength int) (ContentLengthResult, error) {
	if currentLength < 0 {
		return ContentLengthResult{}, errors.Wrapf(model.ErrInvalidArgument, "content length must be >= 0 (got %d)", currentLength)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	base, ok := BaseLengths[contentType]
	if !ok {
		base = DefaultBaseLength
	}
	optimal := int(math.Round(phi.Multiply(float64(base))))
	return ContentLengthResult{
		ContentType:   contentType,
		CurrentLength: currentLength,
		Optimal:       optimal,
		Min:           int(math.Round(phi.Divide(float64(base)))),
		Max:           int(math.Round(phi.Multiply(float64(optimal)))),
		QualityScore:  qualityScore(currentLength, optimal),
		Sections:      int(phi.FibonacciRound(float64(optimal) / wordsPerSection)),
		Split:         phi.ProportionSplit(float64(optimal)),
	}, nil
}

func qualityScore(current, optimal int) int {
	if current <= 0 {
		return QualityPoor
	}
	dev := math.Abs(float64(current)/float64(optimal) - 1)
	switch {
	case dev < 0.1:
		return QualityExcellent
	case dev < 0.3:
		return QualityGood
	}
	return QualityPoor
}
