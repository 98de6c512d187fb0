package trainer

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
	"goldennet/internal/phi"
)

const (
	// DecayEvery is the epoch period of the learning rate decay.
	DecayEvery = 13
	// SnapshotEvery is the epoch period of progress snapshots.
	SnapshotEvery = 21
	// DefaultLogEvery is the epoch period of progress log lines.
	DefaultLogEvery = 21
)

// Mode selects the weight update rule.
type Mode string

const (
	// ModeOutputOnly updates the output layer only. It is the default and
	// the documented behavior of the engine.
	ModeOutputOnly Mode = "output"
	// ModeBackprop propagates the error through all three layers.
	ModeBackprop Mode = "backprop"
)

// ParseMode maps a config string to a Mode. Empty means ModeOutputOnly.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOutputOnly:
		return ModeOutputOnly, nil
	case ModeBackprop:
		return ModeBackprop, nil
	}
	return "", errors.Wrapf(model.ErrInvalidArgument, "unknown training mode %q", s)
}

// Sample is one labeled training example.
type Sample struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// Result summarizes a training call.
type Result struct {
	Success   bool      `json:"success"`
	Epochs    int       `json:"epochs"`
	FinalLoss float64   `json:"final_loss"`
	Losses    []float64 `json:"losses,omitempty"`
}

// ProgressSink receives the periodic progress snapshots. An error aborts
// training.
type ProgressSink interface {
	Record(s metrics.Snapshot) error
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(s metrics.Snapshot) error

// Record implements ProgressSink.
func (f ProgressFunc) Record(s metrics.Snapshot) error { return f(s) }

// Options configures a training call. The zero value is usable.
type Options struct {
	Mode     Mode
	Progress ProgressSink
	// OnEpoch is called after every epoch with its mean loss and the learning
	// rate used during it.
	OnEpoch  func(epoch int, loss, learningRate float64)
	Logger   *zap.Logger
	LogEvery int
	Clock    func() time.Time
}

// LearningRate returns the rate used while processing epoch: 1/φ, multiplied
// by 1/φ after every epoch that is a positive multiple of DecayEvery.
func LearningRate(epoch int) float64 {
	decays := 0
	if epoch > 0 {
		decays = (epoch - 1) / DecayEvery
	}
	return math.Pow(phi.InvPhi, float64(decays+1))
}

// Train fits net to samples for the given number of epochs. Work happens on a
// copy; net is only updated once every epoch has completed, so a failed call
// leaves it untouched.
func Train(net *model.Network, samples []Sample, epochs int, opts Options) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.Wrap(model.ErrInvalidArgument, "trainer: no training samples")
	}
	if epochs <= 0 {
		return Result{}, errors.Wrapf(model.ErrInvalidArgument, "trainer: epochs must be > 0 (got %d)", epochs)
	}
	for i, s := range samples {
		if len(s.Input) != net.Arch.Input {
			return Result{}, errors.Wrapf(model.ErrInvalidInput, "trainer: sample %d: expected %d inputs, got %d", i, net.Arch.Input, len(s.Input))
		}
		if len(s.Output) != net.Arch.Output {
			return Result{}, errors.Wrapf(model.ErrInvalidInput, "trainer: sample %d: expected %d targets, got %d", i, net.Arch.Output, len(s.Output))
		}
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeOutputOnly
	}
	var update func(*model.Network, *model.Activations, []float64, float64)
	switch mode {
	case ModeOutputOnly:
		update = updateOutputLayer
	case ModeBackprop:
		update = updateAllLayers
	default:
		return Result{}, errors.Wrapf(model.ErrInvalidArgument, "trainer: unknown mode %q", mode)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logEvery := opts.LogEvery
	if logEvery <= 0 {
		logEvery = DefaultLogEvery
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	work := net.Clone()
	losses := make([]float64, 0, epochs)
	var window metrics.Window

	for epoch := 0; epoch < epochs; epoch++ {
		lr := LearningRate(epoch)
		for i, s := range samples {
			start := time.Now()
			acts, err := work.Forward(s.Input)
			if err != nil {
				return Result{}, errors.WithMessagef(err, "trainer: epoch %d sample %d", epoch, i)
			}
			loss := meanSquaredError(acts.Output(), s.Output)
			update(work, acts, s.Output, lr)
			window.Record(loss, time.Since(start))
		}
		stats := window.Stats()
		if math.IsNaN(stats.MeanLoss) || math.IsInf(stats.MeanLoss, 0) {
			return Result{}, errors.Errorf("trainer: loss diverged at epoch %d", epoch)
		}
		losses = append(losses, stats.MeanLoss)

		if epoch%SnapshotEvery == 0 && opts.Progress != nil {
			// Snapshots carry the rate after this epoch's decay step.
			snap := metrics.Snapshot{Epoch: epoch, Loss: stats.MeanLoss, LearningRate: LearningRate(epoch + 1), Timestamp: clock()}
			if err := opts.Progress.Record(snap); err != nil {
				return Result{}, errors.Wrapf(err, "trainer: record progress at epoch %d", epoch)
			}
		}
		if epoch%logEvery == 0 || epoch == epochs-1 {
			logger.Info("training progress",
				zap.Int("epoch", epoch),
				zap.Float64("loss", stats.MeanLoss),
				zap.Float64("learning_rate", lr),
				zap.Float64("samples_per_sec", stats.SamplesPerSec),
			)
		}
		if opts.OnEpoch != nil {
			opts.OnEpoch(epoch, stats.MeanLoss, lr)
		}
	}

	net.Layers = work.Layers
	return Result{
		Success:   true,
		Epochs:    epochs,
		FinalLoss: losses[len(losses)-1],
		Losses:    losses,
	}, nil
}

func meanSquaredError(output, target []float64) float64 {
	sum := 0.0
	for i, o := range output {
		d := target[i] - o
		sum += d * d
	}
	return sum / float64(len(output))
}
