package model

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"goldennet/internal/phi"
)

// Layer holds one weight vector per neuron plus its bias. Weights[i] has the
// size of the preceding layer.
type Layer struct {
	Weights [][]float64
	Biases  []float64
}

// Network is the φ-scaled three layer feed-forward network. Layers follow the
// order of Architecture.Layers.
type Network struct {
	Arch   Architecture
	Layers []Layer
}

// NewNetwork initializes every layer transition with weights drawn uniformly
// from [-limit, limit], limit = sqrt(6/(in+out))·φ, and zero biases.
// A nil rng falls back to a time seeded source.
func NewNetwork(arch Architecture, rng *rand.Rand) *Network {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	shapes := arch.Layers()
	net := &Network{Arch: arch, Layers: make([]Layer, len(shapes))}
	for li, s := range shapes {
		limit := InitLimit(s.In, s.Out)
		weights := make([][]float64, s.Out)
		for i := range weights {
			row := make([]float64, s.In)
			for j := range row {
				row[j] = (rng.Float64()*2 - 1) * limit
			}
			weights[i] = row
		}
		net.Layers[li] = Layer{Weights: weights, Biases: make([]float64, s.Out)}
	}
	return net
}

// InitLimit is the φ-scaled Xavier bound for a layer transition.
func InitLimit(in, out int) float64 {
	return math.Sqrt(6/float64(in+out)) * phi.Phi
}

// Layer returns the named layer, or nil for an unknown name.
func (n *Network) Layer(name string) *Layer {
	for i, s := range n.Arch.Layers() {
		if s.Name == name {
			return &n.Layers[i]
		}
	}
	return nil
}

// Validate checks every weight and bias shape against the architecture.
func (n *Network) Validate() error {
	shapes := n.Arch.Layers()
	if len(n.Layers) != len(shapes) {
		return errors.Wrapf(ErrModelMismatch, "expected %d layers, got %d", len(shapes), len(n.Layers))
	}
	for li, s := range shapes {
		l := n.Layers[li]
		if len(l.Weights) != s.Out {
			return errors.Wrapf(ErrModelMismatch, "layer %s: expected %d neurons, got %d", s.Name, s.Out, len(l.Weights))
		}
		if len(l.Biases) != s.Out {
			return errors.Wrapf(ErrModelMismatch, "layer %s: expected %d biases, got %d", s.Name, s.Out, len(l.Biases))
		}
		for i, w := range l.Weights {
			if len(w) != s.In {
				return errors.Wrapf(ErrModelMismatch, "layer %s neuron %d: expected %d weights, got %d", s.Name, i, s.In, len(w))
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (n *Network) Clone() *Network {
	c := &Network{Arch: n.Arch, Layers: make([]Layer, len(n.Layers))}
	for li, l := range n.Layers {
		weights := make([][]float64, len(l.Weights))
		for i, w := range l.Weights {
			weights[i] = append([]float64(nil), w...)
		}
		c.Layers[li] = Layer{Weights: weights, Biases: append([]float64(nil), l.Biases...)}
	}
	return c
}

// Activations are the per-call results of a forward pass. Sums hold the
// weighted sum plus bias of each neuron, Values the activated outputs, both
// indexed like Network.Layers. They belong to a single call and are never
// shared.
type Activations struct {
	Input  []float64
	Sums   [][]float64
	Values [][]float64
}

// Hidden2 returns the hidden2 activations.
func (a *Activations) Hidden2() []float64 { return a.Values[1] }

// Output returns the output layer activations.
func (a *Activations) Output() []float64 { return a.Values[2] }

// Forward runs the input through the three layers:
// hidden1 sigmoid(x·φ), hidden2 max(0,x)·φ, output sigmoid(x·φ).
func (n *Network) Forward(input []float64) (*Activations, error) {
	if len(input) != n.Arch.Input {
		return nil, errors.Wrapf(ErrInvalidInput, "expected %d features, got %d", n.Arch.Input, len(input))
	}
	acts := &Activations{
		Input:  input,
		Sums:   make([][]float64, len(n.Layers)),
		Values: make([][]float64, len(n.Layers)),
	}
	prev := input
	for li, l := range n.Layers {
		sums := make([]float64, len(l.Weights))
		values := make([]float64, len(l.Weights))
		for i, w := range l.Weights {
			sums[i] = floats.Dot(w, prev) + l.Biases[i]
			values[i] = Activate(li, sums[i])
		}
		acts.Sums[li] = sums
		acts.Values[li] = values
		prev = values
	}
	return acts, nil
}

// Predict returns the output layer for input.
func (n *Network) Predict(input []float64) ([]float64, error) {
	acts, err := n.Forward(input)
	if err != nil {
		return nil, err
	}
	return acts.Output(), nil
}

// Activate applies the activation of layer index li to a weighted sum.
func Activate(li int, x float64) float64 {
	if li == 1 {
		return PhiReLU(x)
	}
	return PhiSigmoid(x)
}

// ActivateDerivative is d/dx of Activate, expressed through the activated
// value y where that is cheaper.
func ActivateDerivative(li int, x, y float64) float64 {
	if li == 1 {
		if x > 0 {
			return phi.Phi
		}
		return 0
	}
	return phi.Phi * y * (1 - y)
}

// PhiSigmoid is sigmoid(x·φ).
func PhiSigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x*phi.Phi))
}

// PhiReLU is max(0, x)·φ. It has no upper bound.
func PhiReLU(x float64) float64 {
	return math.Max(0, x) * phi.Phi
}
