package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowStats(t *testing.T) {
	var w Window
	w.Record(1.2, 20*time.Millisecond)
	w.Record(0.8, 30*time.Millisecond)
	stats := w.Stats()
	if math.Abs(stats.MeanLoss-1.0) > 1e-12 {
		t.Fatalf("unexpected mean loss %.4f", stats.MeanLoss)
	}
	if math.Abs(stats.SamplesPerSec-40) > 1e-6 {
		t.Fatalf("unexpected throughput %.2f", stats.SamplesPerSec)
	}
	if math.Abs(stats.AvgComputeMS-25) > 1e-6 {
		t.Fatalf("unexpected compute ms %.2f", stats.AvgComputeMS)
	}
	if stats.LastLoss != 0.8 {
		t.Fatalf("expected last loss 0.8, got %.2f", stats.LastLoss)
	}
	if w.samples != 0 || w.loss != 0 {
		t.Fatalf("window was not reset")
	}
}

func TestWindowStatsEmpty(t *testing.T) {
	var w Window
	stats := w.Stats()
	if stats.MeanLoss != 0 || stats.SamplesPerSec != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
