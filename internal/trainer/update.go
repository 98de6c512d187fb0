package trainer

import (
	"goldennet/internal/model"
	"goldennet/internal/phi"
)

// updateOutputLayer is the engine's documented rule. Only the output layer
// moves, driven by the φ-scaled raw error and the hidden2 activations:
//
//	error_i    = (target_i - output_i)·φ
//	w[i][j]   += lr·error_i·hidden2_j
//	b[i]      += lr·error_i
func updateOutputLayer(net *model.Network, acts *model.Activations, target []float64, lr float64) {
	out := net.Layer(model.LayerOutput)
	hidden2 := acts.Hidden2()
	for i, o := range acts.Output() {
		e := (target[i] - o) * phi.Phi
		row := out.Weights[i]
		for j, h := range hidden2 {
			row[j] += lr * e * h
		}
		out.Biases[i] += lr * e
	}
}

// updateAllLayers is gradient descent on the squared error through every
// layer, using the derivatives of the φ-scaled activations. Deltas are taken
// against the weights as they were before this sample's update.
func updateAllLayers(net *model.Network, acts *model.Activations, target []float64, lr float64) {
	last := len(net.Layers) - 1
	deltas := make([][]float64, len(net.Layers))

	out := acts.Values[last]
	deltas[last] = make([]float64, len(out))
	for i, o := range out {
		deltas[last][i] = (target[i] - o) * model.ActivateDerivative(last, acts.Sums[last][i], o)
	}
	for li := last - 1; li >= 0; li-- {
		next := net.Layers[li+1]
		d := make([]float64, len(acts.Values[li]))
		for j := range d {
			sum := 0.0
			for k, w := range next.Weights {
				sum += w[j] * deltas[li+1][k]
			}
			d[j] = sum * model.ActivateDerivative(li, acts.Sums[li][j], acts.Values[li][j])
		}
		deltas[li] = d
	}

	for li := range net.Layers {
		in := acts.Input
		if li > 0 {
			in = acts.Values[li-1]
		}
		l := net.Layers[li]
		for i, d := range deltas[li] {
			row := l.Weights[i]
			for j, x := range in {
				row[j] += lr * d * x
			}
			l.Biases[i] += lr * d
		}
	}
}
