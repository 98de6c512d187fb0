package metrics

import "time"

// Window accumulates per-sample losses and timing across one epoch.
type Window struct {
	samples  int
	loss     float64
	compute  time.Duration
	lastLoss float64
}

// Record adds one sample's loss and the time spent on it.
func (w *Window) Record(loss float64, computeTime time.Duration) {
	w.samples++
	w.loss += loss
	w.compute += computeTime
	w.lastLoss = loss
}

// Stats returns aggregated metrics and resets the window.
func (w *Window) Stats() WindowStats {
	stats := WindowStats{Samples: w.samples, LastLoss: w.lastLoss}
	if w.samples > 0 {
		stats.MeanLoss = w.loss / float64(w.samples)
		stats.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.samples)
	}
	if w.compute > 0 {
		stats.SamplesPerSec = float64(w.samples) / w.compute.Seconds()
	}

	w.samples = 0
	w.loss = 0
	w.compute = 0
	w.lastLoss = 0
	return stats
}

// WindowStats represents loggable epoch metrics.
type WindowStats struct {
	Samples       int
	MeanLoss      float64
	LastLoss      float64
	SamplesPerSec float64
	AvgComputeMS  float64
}
