package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-ml/lockstep/internal/backend/cpu"
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func newParam(t *testing.T, name string, values []float32) *nn.Parameter[*cpu.Backend] {
	t.Helper()
	b := cpu.New()
	return nn.NewParameter(name, tensor.FromSlice(values, tensor.Shape{len(values)}, b))
}

func gradFor(t *testing.T, p *nn.Parameter[*cpu.Backend], values []float32) {
	t.Helper()
	g, err := tensor.NewRaw(p.Value().Shape(), tensor.Float32, p.Raw().Device())
	require.NoError(t, err)
	copy(g.Float32(), values)
	p.SetGrad(g)
}

func TestSGDStep(t *testing.T) {
	p := newParam(t, "w", []float32{1, 2, 3})
	gradFor(t, p, []float32{10, 10, 10})

	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{p}, 0.1, 0)
	opt.Step()

	assert.InDeltaSlice(t, []float32{0, 1, 2}, p.Raw().Float32(), 1e-6)
}

func TestSGDSkipsNilGrad(t *testing.T) {
	p := newParam(t, "w", []float32{1, 2})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{p}, 0.5, 0)
	opt.Step()
	assert.Equal(t, []float32{1, 2}, p.Raw().Float32())
}

func TestSGDMomentumAccumulates(t *testing.T) {
	p := newParam(t, "w", []float32{0})
	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{p}, 1, 0.5)

	gradFor(t, p, []float32{1})
	opt.Step()
	// v = 1, w = -1
	assert.InDelta(t, -1, p.Raw().Float32()[0], 1e-6)

	gradFor(t, p, []float32{1})
	opt.Step()
	// v = 0.5 + 1 = 1.5, w = -2.5
	assert.InDelta(t, -2.5, p.Raw().Float32()[0], 1e-6)
}

func TestSGDZeroGrad(t *testing.T) {
	p := newParam(t, "w", []float32{1})
	gradFor(t, p, []float32{2})

	opt := NewSGD([]*nn.Parameter[*cpu.Backend]{p}, 0.1, 0)
	opt.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestAdamFirstStepMovesByLR(t *testing.T) {
	p := newParam(t, "w", []float32{1})
	gradFor(t, p, []float32{0.5})

	opt := NewAdam([]*nn.Parameter[*cpu.Backend]{p}, 0.01)
	opt.Step()

	// With bias correction the first step is ~lr in the gradient
	// direction regardless of magnitude.
	assert.InDelta(t, 0.99, p.Raw().Float32()[0], 1e-4)
}

func TestSetLR(t *testing.T) {
	opt := NewSGD[*cpu.Backend](nil, 0.1, 0)
	opt.SetLR(0.05)
	assert.Equal(t, float32(0.05), opt.LR())
}
