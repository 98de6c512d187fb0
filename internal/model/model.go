package model

import (
	"time"

	"github.com/pkg/errors"

	"goldennet/internal/phi"
)

// Model is the persisted form of a network: the single durable artifact.
type Model struct {
	Architecture Architecture           `json:"architecture"`
	Weights      map[string][][]float64 `json:"weights"`
	Biases       map[string][]float64   `json:"biases"`
	Trained      bool                   `json:"trained"`
	Phi          float64                `json:"phi"`
	Timestamp    string                 `json:"timestamp"`
}

// ToModel copies the network into a Model stamped with now.
func (n *Network) ToModel(trained bool, now time.Time) *Model {
	c := n.Clone()
	m := &Model{
		Architecture: c.Arch,
		Weights:      make(map[string][][]float64, len(c.Layers)),
		Biases:       make(map[string][]float64, len(c.Layers)),
		Trained:      trained,
		Phi:          phi.Phi,
		Timestamp:    now.UTC().Format(time.RFC3339Nano),
	}
	for li, s := range c.Arch.Layers() {
		m.Weights[s.Name] = c.Layers[li].Weights
		m.Biases[s.Name] = c.Layers[li].Biases
	}
	return m
}

// ToNetwork rebuilds a network from the model and validates its shapes.
func (m *Model) ToNetwork() (*Network, error) {
	if m == nil {
		return nil, errors.Wrap(ErrModelMismatch, "nil model")
	}
	shapes := m.Architecture.Layers()
	net := &Network{Arch: m.Architecture, Layers: make([]Layer, len(shapes))}
	for li, s := range shapes {
		w, ok := m.Weights[s.Name]
		if !ok {
			return nil, errors.Wrapf(ErrModelMismatch, "missing weights for layer %s", s.Name)
		}
		b, ok := m.Biases[s.Name]
		if !ok {
			return nil, errors.Wrapf(ErrModelMismatch, "missing biases for layer %s", s.Name)
		}
		net.Layers[li] = Layer{Weights: w, Biases: b}
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net.Clone(), nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := *m
	c.Weights = make(map[string][][]float64, len(m.Weights))
	for name, rows := range m.Weights {
		cp := make([][]float64, len(rows))
		for i, r := range rows {
			cp[i] = append([]float64(nil), r...)
		}
		c.Weights[name] = cp
	}
	c.Biases = make(map[string][]float64, len(m.Biases))
	for name, b := range m.Biases {
		c.Biases[name] = append([]float64(nil), b...)
	}
	return &c
}
