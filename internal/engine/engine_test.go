package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"goldennet/internal/model"
	"goldennet/internal/store"
	"goldennet/internal/trainer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newEngine(t *testing.T, inputSize int, repo *store.MemoryStore) *Engine {
	t.Helper()
	e, err := New(context.Background(), Options{
		InputSize:  inputSize,
		Seed:       42,
		Repository: repo,
		Progress:   repo,
		Clock:      func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return e
}

func samplesFor(arch model.Architecture, n int) []trainer.Sample {
	samples := make([]trainer.Sample, n)
	for s := range samples {
		in := make([]float64, arch.Input)
		for i := range in {
			in[i] = float64((s+i)%5) / 5
		}
		out := make([]float64, arch.Output)
		for i := range out {
			out[i] = float64((s+i)%2) * 0.9
		}
		samples[s] = trainer.Sample{Input: in, Output: out}
	}
	return samples
}

func TestNewRejectsBadInputSize(t *testing.T) {
	_, err := New(context.Background(), Options{InputSize: 0, Repository: store.NewMemoryStore(0)})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument), "got %v", err)

	_, err = New(context.Background(), Options{InputSize: 3})
	assert.True(t, errors.Is(err, model.ErrInvalidArgument), "missing repository: %v", err)
}

func TestFreshEngine(t *testing.T) {
	e := newEngine(t, 10, store.NewMemoryStore(0))
	st := e.Status()
	assert.False(t, st.Trained)
	assert.Equal(t, model.Architecture{Input: 10, Hidden1: 16, Hidden2: 26, Output: 42}, st.Architecture)
	assert.Equal(t, 1752, st.TotalParams)
	assert.Equal(t, int64(1752*8), st.ModelSizeEstimate)
	assert.Equal(t, "14 kB", st.ModelSize)

	out, err := e.Predict(make([]float64, 10))
	require.NoError(t, err)
	assert.Len(t, out, 42)

	_, err = e.Predict(make([]float64, 9))
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
}

func TestSeedDeterministic(t *testing.T) {
	a := newEngine(t, 3, store.NewMemoryStore(0))
	b := newEngine(t, 3, store.NewMemoryStore(0))
	if diff := cmp.Diff(a.Network(), b.Network()); diff != "" {
		t.Fatalf("same seed produced different weights:\n%s", diff)
	}
}

func TestTrainPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(0)
	e := newEngine(t, 3, repo)

	res, err := e.Train(ctx, samplesFor(e.Architecture(), 4), 22)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 22, res.Epochs)
	assert.True(t, e.Status().Trained)

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.Trained)
	assert.Equal(t, e.Architecture(), persisted.Architecture)

	snaps, err := e.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 0, snaps[0].Epoch)
	assert.Equal(t, 21, snaps[1].Epoch)
	assert.Equal(t, res.FinalLoss, snaps[1].Loss)

	reloaded, err := New(ctx, Options{InputSize: 3, Seed: 7, Repository: repo})
	require.NoError(t, err)
	assert.True(t, reloaded.Trained())
	if diff := cmp.Diff(e.Network(), reloaded.Network()); diff != "" {
		t.Fatalf("reloaded weights differ:\n%s", diff)
	}

	input := samplesFor(e.Architecture(), 1)[0].Input
	want, err := e.Predict(input)
	require.NoError(t, err)
	got, err := reloaded.Predict(input)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArchitectureMismatchFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(0)
	e := newEngine(t, 3, repo)
	_, err := e.Train(ctx, samplesFor(e.Architecture(), 2), 1)
	require.NoError(t, err)

	other, err := New(ctx, Options{InputSize: 4, Seed: 42, Repository: repo})
	require.NoError(t, err)
	assert.False(t, other.Trained())
	fresh, err := New(ctx, Options{InputSize: 4, Seed: 42, Repository: store.NewMemoryStore(0)})
	require.NoError(t, err)
	assert.Equal(t, fresh.Network(), other.Network())
}

func TestAdoptedModelIsTrained(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(0)
	e := newEngine(t, 3, repo)
	require.NoError(t, repo.Save(ctx, e.Network().ToModel(false, time.Now())))

	reloaded := newEngine(t, 3, repo)
	assert.True(t, reloaded.Trained())
	assert.Equal(t, e.Network(), reloaded.Network())
}

func TestMalformedModelFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(0)
	e := newEngine(t, 3, repo)
	m := e.Network().ToModel(true, time.Now())
	m.Weights[model.LayerOutput] = m.Weights[model.LayerOutput][1:]
	require.NoError(t, repo.Save(ctx, m))

	reloaded := newEngine(t, 3, repo)
	assert.False(t, reloaded.Trained())
	require.NoError(t, reloaded.Network().Validate())
}

type brokenRepo struct {
	loadErr error
	saveErr error
}

func (r brokenRepo) Save(context.Context, *model.Model) error    { return r.saveErr }
func (r brokenRepo) Load(context.Context) (*model.Model, error) { return nil, r.loadErr }
func (r brokenRepo) Delete(context.Context) error               { return nil }

func TestLoadErrorFallsBack(t *testing.T) {
	e, err := New(context.Background(), Options{InputSize: 2, Repository: brokenRepo{loadErr: errors.New("io")}})
	require.NoError(t, err)
	assert.False(t, e.Trained())
}

func TestSaveFailureKeepsTrainedWeights(t *testing.T) {
	repo := brokenRepo{loadErr: model.ErrNotFound, saveErr: errors.New("read-only")}
	e, err := New(context.Background(), Options{InputSize: 2, Repository: repo})
	require.NoError(t, err)
	before := e.Network()

	res, err := e.Train(context.Background(), samplesFor(e.Architecture(), 2), 2)
	require.Error(t, err)
	assert.True(t, res.Success)
	assert.True(t, e.Trained())
	assert.NotEqual(t, before, e.Network())
}

func TestTrainEmptySamples(t *testing.T) {
	e := newEngine(t, 2, store.NewMemoryStore(0))
	_, err := e.Train(context.Background(), nil, 10)
	assert.True(t, errors.Is(err, model.ErrInvalidArgument))
	assert.False(t, e.Trained())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(0)
	e := newEngine(t, 3, repo)
	_, err := e.Train(ctx, samplesFor(e.Architecture(), 3), 25)
	require.NoError(t, err)
	trained := e.Network()

	require.NoError(t, e.Reset(ctx))
	st := e.Status()
	assert.False(t, st.Trained)

	net := e.Network()
	require.NoError(t, net.Validate())
	assert.Equal(t, st.Architecture, net.Arch)
	assert.NotEqual(t, trained.Layers, net.Layers)
	for _, l := range net.Layers {
		for _, b := range l.Biases {
			assert.Zero(t, b)
		}
	}

	_, err = repo.Load(ctx)
	assert.True(t, errors.Is(err, model.ErrNotFound))
	snaps, err := e.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	// Retraining after reset moves back to trained.
	_, err = e.Train(ctx, samplesFor(e.Architecture(), 3), 1)
	require.NoError(t, err)
	assert.True(t, e.Trained())
}

func TestPredictBatch(t *testing.T) {
	e := newEngine(t, 3, store.NewMemoryStore(0))
	samples := samplesFor(e.Architecture(), 20)
	inputs := make([][]float64, len(samples))
	for i, s := range samples {
		inputs[i] = s.Input
	}
	got, err := e.PredictBatch(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, got, len(inputs))
	for i, in := range inputs {
		want, err := e.Predict(in)
		require.NoError(t, err)
		assert.Equal(t, want, got[i])
	}

	inputs[7] = []float64{1}
	_, err = e.PredictBatch(context.Background(), inputs)
	assert.True(t, errors.Is(err, model.ErrInvalidInput), "got %v", err)
}

func TestConcurrentPredictDuringTrain(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, 3, store.NewMemoryStore(0))
	samples := samplesFor(e.Architecture(), 5)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				out, err := e.Predict(samples[0].Input)
				if !assert.NoError(t, err) {
					return
				}
				for _, v := range out {
					if v < 0 || v > 1 {
						t.Errorf("output %f out of range", v)
						return
					}
				}
			}
		}()
	}
	_, err := e.Train(ctx, samples, 30)
	close(stop)
	wg.Wait()
	require.NoError(t, err)
}

func TestProgressCapApplies(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore(2)
	e := newEngine(t, 2, repo)
	_, err := e.Train(ctx, samplesFor(e.Architecture(), 1), 70)
	require.NoError(t, err)
	snaps, err := e.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 42, snaps[0].Epoch)
	assert.Equal(t, 63, snaps[1].Epoch)
}
