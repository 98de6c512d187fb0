// Package engine owns the network's lifecycle: sizing and initialization at
// construction, reloading a compatible persisted model, training with
// persistence, status reporting and reset.
//
// The engine has two states. It is untrained after construction without a
// compatible persisted model and after Reset; it is trained after a
// successful Train or after adopting a persisted model. Predict works in both.
//
// Weights are guarded by a single-writer/multi-reader lock: any number of
// Predict calls run concurrently, Train and Reset run alone.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goldennet/internal/metrics"
	"goldennet/internal/model"
	"goldennet/internal/store"
	"goldennet/internal/trainer"
)

// bytesPerParam is the size estimate of one stored parameter.
const bytesPerParam = 8

// Options configures New.
type Options struct {
	InputSize int
	// Seed feeds the weight initializer. Equal seeds give equal fresh weights.
	Seed       int64
	Repository store.ModelRepository
	// Progress receives the snapshots written during training. Optional.
	Progress store.ProgressLog
	Mode     trainer.Mode
	Logger   *zap.Logger
	LogEvery int
	Clock    func() time.Time
	// OnEpoch is forwarded to the trainer on every Train call.
	OnEpoch func(epoch int, loss, learningRate float64)
}

// Engine is the prediction engine.
type Engine struct {
	mu      sync.RWMutex
	arch    model.Architecture
	net     *model.Network
	trained bool

	rng      *rand.Rand
	repo     store.ModelRepository
	progress store.ProgressLog
	mode     trainer.Mode
	logger   *zap.Logger
	logEvery int
	clock    func() time.Time
	onEpoch  func(epoch int, loss, learningRate float64)
}

// Status describes the engine for reporting.
type Status struct {
	Architecture model.Architecture `json:"architecture"`
	Trained      bool               `json:"trained"`
	TotalParams  int                `json:"total_params"`
	// ModelSizeEstimate is in bytes.
	ModelSizeEstimate int64  `json:"model_size_estimate"`
	ModelSize         string `json:"model_size"`
}

// New sizes and initializes the network, then tries to adopt the persisted
// model. A missing, unreadable or incompatible persisted model is never an
// error: the fresh weights are kept.
func New(ctx context.Context, opts Options) (*Engine, error) {
	arch, err := model.NewArchitecture(opts.InputSize)
	if err != nil {
		return nil, err
	}
	if opts.Repository == nil {
		return nil, errors.Wrap(model.ErrInvalidArgument, "engine: a model repository is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = trainer.ModeOutputOnly
	}
	e := &Engine{
		arch:     arch,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		repo:     opts.Repository,
		progress: opts.Progress,
		mode:     mode,
		logger:   opts.Logger,
		logEvery: opts.LogEvery,
		clock:    opts.Clock,
		onEpoch:  opts.OnEpoch,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	e.net = model.NewNetwork(arch, e.rng)
	e.adopt(ctx)
	return e, nil
}

func (e *Engine) adopt(ctx context.Context) {
	m, err := e.repo.Load(ctx)
	switch {
	case errors.Is(err, model.ErrNotFound):
		e.logger.Debug("no persisted model, using fresh weights")
		return
	case err != nil:
		e.logger.Warn("failed to load persisted model, using fresh weights", zap.Error(err))
		return
	}
	if !m.Architecture.Equal(e.arch) {
		e.logger.Info("persisted model architecture mismatch, using fresh weights",
			zap.Any("persisted", m.Architecture),
			zap.Any("requested", e.arch),
			zap.Error(model.ErrModelMismatch))
		return
	}
	net, err := m.ToNetwork()
	if err != nil {
		e.logger.Warn("persisted model is malformed, using fresh weights", zap.Error(err))
		return
	}
	e.net = net
	e.trained = true
	e.logger.Info("loaded persisted model", zap.String("timestamp", m.Timestamp))
}

// Architecture returns the layer sizes.
func (e *Engine) Architecture() model.Architecture { return e.arch }

// Predict runs a forward pass. It never mutates the engine.
func (e *Engine) Predict(input []float64) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.net.Predict(input)
}

// PredictBatch predicts every input concurrently. Results keep the input
// order; the first failure cancels the rest.
func (e *Engine) PredictBatch(ctx context.Context, inputs [][]float64) ([][]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([][]float64, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pred, err := e.net.Predict(input)
			if err != nil {
				return errors.WithMessagef(err, "input %d", i)
			}
			out[i] = pred
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Train fits the network to samples and persists the result. The context
// only bounds persistence I/O; the epoch loop always runs to completion.
// Weights change only if every epoch succeeds. If training succeeds but the
// model cannot be saved, the new weights stay in memory and the save error
// is returned.
func (e *Engine) Train(ctx context.Context, samples []trainer.Sample, epochs int) (trainer.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := uuid.NewString()
	logger := e.logger.With(zap.String("run", run))
	logger.Info("training started",
		zap.Int("samples", len(samples)),
		zap.Int("epochs", epochs),
		zap.String("mode", string(e.mode)))

	opts := trainer.Options{
		Mode:     e.mode,
		OnEpoch:  e.onEpoch,
		Logger:   logger,
		LogEvery: e.logEvery,
		Clock:    e.clock,
	}
	if e.progress != nil {
		opts.Progress = trainer.ProgressFunc(func(s metrics.Snapshot) error {
			return e.progress.Append(ctx, s)
		})
	}
	res, err := trainer.Train(e.net, samples, epochs, opts)
	if err != nil {
		logger.Warn("training failed", zap.Error(err))
		return trainer.Result{}, err
	}
	e.trained = true

	if err := e.repo.Save(ctx, e.net.ToModel(true, e.clock())); err != nil {
		return res, errors.WithMessage(err, "engine: persist trained model")
	}
	logger.Info("training finished", zap.Float64("final_loss", res.FinalLoss))
	return res, nil
}

// Status reports architecture, state and size.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	params := e.arch.TotalParams()
	size := int64(params) * bytesPerParam
	return Status{
		Architecture:      e.arch,
		Trained:           e.trained,
		TotalParams:       params,
		ModelSizeEstimate: size,
		ModelSize:         humanize.Bytes(uint64(size)),
	}
}

// Trained reports whether the engine is in the trained state.
func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trained
}

// Reset deletes the persisted model and progress snapshots, then
// reinitializes the weights. The engine is untrained afterwards even when
// deleting fails.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net = model.NewNetwork(e.arch, e.rng)
	e.trained = false

	if err := e.repo.Delete(ctx); err != nil {
		return errors.WithMessage(err, "engine: delete persisted model")
	}
	if e.progress != nil {
		if err := e.progress.Clear(ctx); err != nil {
			return errors.WithMessage(err, "engine: clear progress")
		}
	}
	e.logger.Info("engine reset")
	return nil
}

// Snapshots returns the stored training progress, oldest first.
func (e *Engine) Snapshots(ctx context.Context) ([]metrics.Snapshot, error) {
	if e.progress == nil {
		return nil, nil
	}
	return e.progress.Snapshots(ctx)
}

// Network returns a copy of the current weights.
func (e *Engine) Network() *model.Network {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.net.Clone()
}
