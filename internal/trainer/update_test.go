package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldennet/internal/model"
)

func halfSquaredError(t *testing.T, net *model.Network, s Sample) float64 {
	t.Helper()
	out, err := net.Predict(s.Input)
	require.NoError(t, err)
	sum := 0.0
	for i, o := range out {
		d := s.Output[i] - o
		sum += d * d
	}
	return sum / 2
}

func TestBackpropMatchesNumericGradient(t *testing.T) {
	net := newNet(t, 2, 11)
	sample := Sample{Input: []float64{0.7, -0.4}, Output: make([]float64, net.Arch.Output)}
	for i := range sample.Output {
		sample.Output[i] = float64(i%2) * 0.8
	}
	const lr = 1e-3
	const eps = 1e-6

	for li := range net.Layers {
		updated := net.Clone()
		acts, err := updated.Forward(sample.Input)
		require.NoError(t, err)
		updateAllLayers(updated, acts, sample.Output, lr)

		for i, row := range net.Layers[li].Weights {
			for j, w := range row {
				plus, minus := net.Clone(), net.Clone()
				plus.Layers[li].Weights[i][j] = w + eps
				minus.Layers[li].Weights[i][j] = w - eps
				grad := (halfSquaredError(t, plus, sample) - halfSquaredError(t, minus, sample)) / (2 * eps)
				step := (updated.Layers[li].Weights[i][j] - w) / lr
				assert.InDeltaf(t, -grad, step, 1e-5, "layer %d weight [%d][%d]", li, i, j)
			}
		}
	}
}

func TestBackpropModeMovesHiddenLayers(t *testing.T) {
	net := newNet(t, 2, 3)
	activateHidden2(net)
	before := net.Clone()
	_, err := Train(net, []Sample{constSample(net.Arch, 0.5, 1)}, 2, Options{Mode: ModeBackprop})
	require.NoError(t, err)
	assert.NotEqual(t, before.Layers[0].Weights, net.Layers[0].Weights)
	assert.NotEqual(t, before.Layers[2].Weights, net.Layers[2].Weights)
}
