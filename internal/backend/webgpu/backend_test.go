package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// newBackendOrSkip skips when no WebGPU device is present, so the suite
// passes on machines without the native wgpu library.
func newBackendOrSkip(t *testing.T) *Backend {
	t.Helper()
	b, err := New(0)
	if err != nil {
		t.Skipf("webgpu not available: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func gpuRaw(t *testing.T, b *Backend, values []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, b.Device())
	require.NoError(t, err)
	copy(raw.Float32(), values)
	return raw
}

func TestDeviceIdentity(t *testing.T) {
	b := newBackendOrSkip(t)
	assert.Equal(t, "webgpu", b.Name())
	assert.Equal(t, tensor.Device{Kind: tensor.GPU, Ordinal: 0}, b.Device())
}

func TestAddOnGPU(t *testing.T) {
	b := newBackendOrSkip(t)
	a := gpuRaw(t, b, []float32{1, 2, 3, 4}, tensor.Shape{4})
	c := gpuRaw(t, b, []float32{10, 20, 30, 40}, tensor.Shape{4})
	got := b.Add(a, c)
	assert.Equal(t, []float32{11, 22, 33, 44}, got.Float32())
	assert.Equal(t, b.Device(), got.Device())
}

func TestMatMulOnGPU(t *testing.T) {
	b := newBackendOrSkip(t)
	a := gpuRaw(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	c := gpuRaw(t, b, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})
	got := b.MatMul(a, c)
	assert.InDeltaSlice(t, []float32{58, 64, 139, 154}, got.Float32(), 1e-4)
}

func TestReLUOnGPU(t *testing.T) {
	b := newBackendOrSkip(t)
	x := gpuRaw(t, b, []float32{-1, 0, 2, -3}, tensor.Shape{4})
	got := b.ReLU(x)
	assert.Equal(t, []float32{0, 0, 2, 0}, got.Float32())
}

func TestMulScalarOnGPU(t *testing.T) {
	b := newBackendOrSkip(t)
	x := gpuRaw(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	got := b.MulScalar(x, 2.5)
	assert.InDeltaSlice(t, []float32{2.5, 5, 7.5}, got.Float32(), 1e-6)
}

func TestBroadcastFallsBackToHost(t *testing.T) {
	b := newBackendOrSkip(t)
	x := gpuRaw(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := gpuRaw(t, b, []float32{10, 20, 30}, tensor.Shape{1, 3})
	got := b.Add(x, bias)
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Float32())
	assert.Equal(t, b.Device(), got.Device())
}

func TestHostFallbackKernelsKeepDevice(t *testing.T) {
	b := newBackendOrSkip(t)
	x := gpuRaw(t, b, []float32{1, 3, 2, 4}, tensor.Shape{1, 1, 2, 2})
	pooled := b.MaxPool2D(x, 2, 2)
	assert.Equal(t, []float32{4}, pooled.Float32())
	assert.Equal(t, b.Device(), pooled.Device())
}
