package dataparallel

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-ml/lockstep/internal/autodiff"
	"github.com/lockstep-ml/lockstep/internal/backend/cpu"
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/optim"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func cpuDevices(k int) []*cpu.Backend {
	backends := make([]*cpu.Backend, k)
	for i := range backends {
		backends[i] = cpu.NewFor(tensor.Device{Kind: tensor.CPU, Ordinal: i})
	}
	return backends
}

// buildLinear constructs the same tiny classifier on every call: the
// fixed seed means all replicas start from identical weights.
func buildLinear(ab *autodiff.Backend[*cpu.Backend]) nn.Module[*autodiff.Backend[*cpu.Backend]] {
	rng := rand.New(rand.NewSource(11))
	return nn.NewLinear("fc", 4, 3, rng, ab)
}

func newLinearGroup(t *testing.T, k int) *Group[*cpu.Backend] {
	t.Helper()
	g, err := NewGroup(cpuDevices(k), buildLinear)
	require.NoError(t, err)
	return g
}

func hostBatch(t *testing.T, images []float32, labels []int32, features int) (*tensor.RawTensor, *tensor.RawTensor) {
	t.Helper()
	n := len(labels)
	x, err := tensor.NewRaw(tensor.Shape{n, features}, tensor.Float32, tensor.Device{Kind: tensor.CPU})
	require.NoError(t, err)
	copy(x.Float32(), images)
	y, err := tensor.NewRaw(tensor.Shape{n}, tensor.Int32, tensor.Device{Kind: tensor.CPU})
	require.NoError(t, err)
	copy(y.Int32(), labels)
	return x, y
}

func TestScatterGatherRoundTrip(t *testing.T) {
	for _, tc := range []struct{ rows, k int }{
		{1, 1}, {2, 1}, {4, 2}, {5, 2}, {7, 3}, {10, 4}, {3, 5},
	} {
		devices := make([]tensor.Device, tc.k)
		for i := range devices {
			devices[i] = tensor.Device{Kind: tensor.CPU, Ordinal: i}
		}
		batch := tensor.MustNewRaw(tensor.Shape{tc.rows, 3}, tensor.Float32, tensor.Device{Kind: tensor.CPU})
		data := batch.Float32()
		for i := range data {
			data[i] = float32(i)
		}

		shards, err := Scatter(batch, devices)
		require.NoError(t, err, "rows=%d k=%d", tc.rows, tc.k)

		wantShards := tc.k
		if tc.rows < tc.k {
			wantShards = tc.rows
		}
		require.Len(t, shards, wantShards)

		// Shard sizes differ by at most one and decrease monotonically.
		for i, s := range shards {
			size := s.Shape()[0]
			assert.InDelta(t, tc.rows/wantShards, size, 1)
			assert.Equal(t, devices[i], s.Device())
		}

		back, err := Gather(shards, batch.Device())
		require.NoError(t, err)
		assert.Equal(t, batch.Data(), back.Data(), "rows=%d k=%d", tc.rows, tc.k)
		assert.True(t, back.Shape().Equal(batch.Shape()))
	}
}

func TestScatterShardSizes(t *testing.T) {
	devices := make([]tensor.Device, 3)
	for i := range devices {
		devices[i] = tensor.Device{Kind: tensor.CPU, Ordinal: i}
	}
	batch := tensor.MustNewRaw(tensor.Shape{7, 2}, tensor.Float32, tensor.Device{Kind: tensor.CPU})
	shards, err := Scatter(batch, devices)
	require.NoError(t, err)
	// 7 rows over 3 devices: ceil is 3, floor is 2.
	assert.Equal(t, 3, shards[0].Shape()[0])
	assert.Equal(t, 2, shards[1].Shape()[0])
	assert.Equal(t, 2, shards[2].Shape()[0])
}

func TestScatterZeroDevices(t *testing.T) {
	batch := tensor.MustNewRaw(tensor.Shape{4, 2}, tensor.Float32, tensor.Device{Kind: tensor.CPU})
	_, err := Scatter(batch, nil)
	assert.Error(t, err)
}

func TestInitializeMakesReplicasByteIdentical(t *testing.T) {
	g := newLinearGroup(t, 3)

	// Desynchronize replica 1 before the first Initialize.
	g.Replicas()[1].Parameters()[0].Raw().Float32()[0] = 999

	require.NoError(t, g.Initialize(false))
	ref := g.Reference().Parameters()
	for _, r := range g.Replicas()[1:] {
		for i, p := range r.Parameters() {
			assert.Equal(t, ref[i].Raw().Data(), p.Raw().Data(), "parameter %s", p.Name())
		}
	}
}

func TestInitializeForceOverwrites(t *testing.T) {
	g := newLinearGroup(t, 2)
	require.NoError(t, g.Initialize(false))

	// Second Initialize without force leaves drifted replicas alone,
	// the reference included.
	g.Reference().Parameters()[0].Raw().Float32()[0] = 12345
	g.Replicas()[1].Parameters()[0].Raw().Float32()[0] = 123
	require.NoError(t, g.Initialize(false))
	assert.Equal(t, float32(12345), g.Reference().Parameters()[0].Raw().Float32()[0])
	assert.Equal(t, float32(123), g.Replicas()[1].Parameters()[0].Raw().Float32()[0])

	// Force re-draws the reference from the seeded builder and
	// broadcasts, so trained values vanish on every replica.
	require.NoError(t, g.Initialize(true))

	want := buildLinear(autodiff.New(cpu.New())).Parameters()
	for _, r := range g.Replicas() {
		for i, p := range r.Parameters() {
			assert.Equal(t, want[i].Raw().Data(), p.Raw().Data(), "parameter %s", p.Name())
		}
	}
}

func TestStepAppliesCombinedGradient(t *testing.T) {
	g := newLinearGroup(t, 2)
	require.NoError(t, g.Initialize(false))

	ref := g.Reference()
	opt := optim.NewSGD(ref.Parameters(), 0.5, 0)
	tr, err := NewTrainer(g, opt)
	require.NoError(t, err)

	weight := ref.Parameters()[0]
	old := append([]float32(nil), weight.Raw().Float32()...)

	// Synthetic gradients g1, g2 on the two replicas.
	for ri, r := range g.Replicas() {
		p := r.Parameters()[0]
		grad := tensor.MustNewRaw(p.Value().Shape(), tensor.Float32, r.Device())
		gd := grad.Float32()
		for j := range gd {
			gd[j] = float32(ri + 1) // replica 0: 1, replica 1: 2
		}
		p.SetGrad(grad)
	}

	require.NoError(t, tr.Step(10))

	// param -= lr * (g1+g2)/eff = 0.5 * 3/10 = 0.15
	for j, w := range weight.Raw().Float32() {
		assert.InDelta(t, old[j]-0.15, w, 1e-6)
	}
	// Replicas stay byte-identical and gradients are cleared.
	for _, r := range g.Replicas()[1:] {
		assert.Equal(t, weight.Raw().Data(), r.Parameters()[0].Raw().Data())
	}
	for _, r := range g.Replicas() {
		for _, p := range r.Parameters() {
			assert.Nil(t, p.Grad())
		}
	}
}

func TestTrainBatchMatchesSingleDevice(t *testing.T) {
	images := []float32{
		0.1, 0.9, 0.2, 0.8,
		0.7, 0.3, 0.6, 0.4,
		0.5, 0.5, 0.1, 0.9,
		0.2, 0.4, 0.6, 0.8,
	}
	labels := []int32{0, 1, 2, 1}

	run := func(k int) []float32 {
		g := newLinearGroup(t, k)
		require.NoError(t, g.Initialize(false))
		opt := optim.NewSGD(g.Reference().Parameters(), 0.1, 0)
		tr, err := NewTrainer(g, opt)
		require.NoError(t, err)

		x, y := hostBatch(t, images, labels, 4)
		_, err = tr.TrainBatch(x, y)
		require.NoError(t, err)
		require.NoError(t, tr.Step(len(labels)))
		return append([]float32(nil), g.Reference().Parameters()[0].Raw().Float32()...)
	}

	single := run(1)
	double := run(2)
	// Splitting the batch only changes summation order, so the updates
	// agree up to floating-point rounding.
	assert.InDeltaSlice(t, single, double, 1e-5)
}

func TestTrainBatchAccumulatesLoss(t *testing.T) {
	g := newLinearGroup(t, 2)
	require.NoError(t, g.Initialize(false))
	opt := optim.NewSGD(g.Reference().Parameters(), 0.1, 0)
	tr, err := NewTrainer(g, opt)
	require.NoError(t, err)

	x, y := hostBatch(t, make([]float32, 4*4), []int32{0, 1, 2, 0}, 4)
	loss, err := tr.TrainBatch(x, y)
	require.NoError(t, err)
	assert.Positive(t, loss)

	// Every replica received gradients for every parameter.
	for _, r := range g.Replicas() {
		for _, p := range r.Parameters() {
			assert.NotNil(t, p.Grad(), "gradient for %s", p.Name())
		}
	}

	// Tapes come back empty with recording off, even though gradients
	// were accumulated.
	for _, r := range g.Replicas() {
		assert.Zero(t, r.Backend().Tape().Len())
		assert.False(t, r.Backend().Tape().Recording())
	}
}

type sliceIterator struct {
	images []*tensor.RawTensor
	labels []*tensor.RawTensor
	pos    int
}

func (s *sliceIterator) Next() (*tensor.RawTensor, *tensor.RawTensor, bool) {
	if s.pos >= len(s.images) {
		return nil, nil, false
	}
	i := s.pos
	s.pos++
	return s.images[i], s.labels[i], true
}

func (s *sliceIterator) Reset() { s.pos = 0 }

func TestEvaluateAccuracyInRange(t *testing.T) {
	g := newLinearGroup(t, 2)
	require.NoError(t, g.Initialize(false))
	opt := optim.NewSGD(g.Reference().Parameters(), 0.1, 0)
	tr, err := NewTrainer(g, opt)
	require.NoError(t, err)

	x, y := hostBatch(t, []float32{1, 0, 0, 0, 0, 1, 0, 0}, []int32{0, 1}, 4)
	it := &sliceIterator{images: []*tensor.RawTensor{x}, labels: []*tensor.RawTensor{y}}

	acc, err := tr.Evaluate(it)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, float32(0))
	assert.LessOrEqual(t, acc, float32(1))
}

func TestFitRunsEpochs(t *testing.T) {
	g := newLinearGroup(t, 2)
	opt := optim.NewSGD(g.Reference().Parameters(), 0.1, 0)
	tr, err := NewTrainer(g, opt)
	require.NoError(t, err)

	x1, y1 := hostBatch(t, []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0}, []int32{0, 1, 2}, 4)
	x2, y2 := hostBatch(t, []float32{0, 0, 0, 1, 1, 0, 0, 0}, []int32{1, 0}, 4)
	train := &sliceIterator{images: []*tensor.RawTensor{x1, x2}, labels: []*tensor.RawTensor{y1, y2}}
	val := &sliceIterator{images: []*tensor.RawTensor{x1}, labels: []*tensor.RawTensor{y1}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, tr.Fit(train, val, 2, logger))

	// Replicas remain synchronized after the full loop.
	ref := g.Reference().Parameters()
	for _, r := range g.Replicas()[1:] {
		for i, p := range r.Parameters() {
			assert.Equal(t, ref[i].Raw().Data(), p.Raw().Data())
		}
	}
}

func TestNewTrainerRejectsForeignOptimizer(t *testing.T) {
	g := newLinearGroup(t, 2)
	other := newLinearGroup(t, 1)
	opt := optim.NewSGD(other.Reference().Parameters(), 0.1, 0)
	_, err := NewTrainer(g, opt)
	assert.Error(t, err)
}
