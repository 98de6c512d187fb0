package model

import (
	"math"

	"github.com/pkg/errors"

	"goldennet/internal/phi"
)

// Layer names, in forward order.
const (
	LayerHidden1 = "hidden1"
	LayerHidden2 = "hidden2"
	LayerOutput  = "output"
)

// LayerNames lists the non-input layers in forward order.
var LayerNames = []string{LayerHidden1, LayerHidden2, LayerOutput}

// Architecture holds the layer sizes of the network. It is derived once from
// the input size and never changes afterwards.
type Architecture struct {
	Input   int `json:"input"`
	Hidden1 int `json:"hidden1"`
	Hidden2 int `json:"hidden2"`
	Output  int `json:"output"`
}

// NewArchitecture sizes the layers from powers of φ:
// hidden1 = round(n·φ), hidden2 = round(n·φ²), output = round(n·φ³).
func NewArchitecture(inputSize int) (Architecture, error) {
	if inputSize <= 0 {
		return Architecture{}, errors.Wrapf(ErrInvalidArgument, "input size must be > 0 (got %d)", inputSize)
	}
	n := float64(inputSize)
	return Architecture{
		Input:   inputSize,
		Hidden1: int(math.Round(n * phi.Phi)),
		Hidden2: int(math.Round(n * phi.PhiSquared)),
		Output:  int(math.Round(n * phi.PhiCubed)),
	}, nil
}

// Equal reports whether all four sizes match.
func (a Architecture) Equal(b Architecture) bool {
	return a == b
}

// LayerShape is the fan-in and fan-out of one layer transition.
type LayerShape struct {
	Name string
	In   int
	Out  int
}

// Layers returns the three layer transitions in forward order.
func (a Architecture) Layers() []LayerShape {
	return []LayerShape{
		{Name: LayerHidden1, In: a.Input, Out: a.Hidden1},
		{Name: LayerHidden2, In: a.Hidden1, Out: a.Hidden2},
		{Name: LayerOutput, In: a.Hidden2, Out: a.Output},
	}
}

// TotalParams counts every weight and bias.
func (a Architecture) TotalParams() int {
	total := 0
	for _, l := range a.Layers() {
		total += l.In*l.Out + l.Out
	}
	return total
}
