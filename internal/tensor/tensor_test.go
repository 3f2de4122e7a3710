package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, Shape{1}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.Error(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1, 3}.Validate())
}

func TestShapeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.Strides())
	assert.Equal(t, []int{1}, Shape{5}.Strides())
}

func TestBroadcastShapes(t *testing.T) {
	got, err := BroadcastShapes(Shape{4, 3}, Shape{1, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{4, 3}, got)

	got, err = BroadcastShapes(Shape{3}, Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, got)

	_, err = BroadcastShapes(Shape{4, 3}, Shape{4, 2})
	assert.Error(t, err)
}

func TestParseDevice(t *testing.T) {
	d, err := ParseDevice("cpu")
	require.NoError(t, err)
	assert.Equal(t, Device{Kind: CPU, Ordinal: 0}, d)

	d, err = ParseDevice("cpu:2")
	require.NoError(t, err)
	assert.Equal(t, Device{Kind: CPU, Ordinal: 2}, d)

	d, err = ParseDevice("gpu:1")
	require.NoError(t, err)
	assert.Equal(t, Device{Kind: GPU, Ordinal: 1}, d)
	assert.Equal(t, "gpu:1", d.String())

	_, err = ParseDevice("tpu:0")
	assert.Error(t, err)
	_, err = ParseDevice("cpu:-1")
	assert.Error(t, err)
	_, err = ParseDevice("cpu:x")
	assert.Error(t, err)
}

func TestNewRawRejectsInvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, 0}, Float32, Device{})
	assert.Error(t, err)
}

func TestRawCloneIsIndependent(t *testing.T) {
	a := MustNewRaw(Shape{2, 2}, Float32, Device{})
	a.Float32()[0] = 1

	b := a.Clone()
	b.Float32()[0] = 9

	assert.Equal(t, float32(1), a.Float32()[0])
	assert.Equal(t, float32(9), b.Float32()[0])
}

func TestRawCloneToChangesDevice(t *testing.T) {
	a := MustNewRaw(Shape{3}, Float32, Device{Kind: CPU, Ordinal: 0})
	copy(a.Float32(), []float32{1, 2, 3})

	b := a.CloneTo(Device{Kind: CPU, Ordinal: 1})
	assert.Equal(t, Device{Kind: CPU, Ordinal: 1}, b.Device())
	assert.Equal(t, []float32{1, 2, 3}, b.Float32())
}

func TestRawCopyFrom(t *testing.T) {
	dst := MustNewRaw(Shape{2}, Float32, Device{Kind: CPU, Ordinal: 0})
	src := MustNewRaw(Shape{2}, Float32, Device{Kind: CPU, Ordinal: 1})
	copy(src.Float32(), []float32{5, 6})

	require.NoError(t, dst.CopyFrom(src))
	assert.Equal(t, []float32{5, 6}, dst.Float32())
	assert.Equal(t, Device{Kind: CPU, Ordinal: 0}, dst.Device())

	bad := MustNewRaw(Shape{3}, Float32, Device{})
	assert.Error(t, dst.CopyFrom(bad))
}

func TestDataTypeOf(t *testing.T) {
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Int32, DataTypeOf[int32]())
	assert.Equal(t, Uint8, DataTypeOf[uint8]())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 1, Uint8.Size())
}

func TestRandnDeterministicPerSeed(t *testing.T) {
	b := newFakeBackend()
	a := Randn(Shape{4, 4}, rand.New(rand.NewSource(3)), b)
	c := Randn(Shape{4, 4}, rand.New(rand.NewSource(3)), b)
	assert.Equal(t, a.Data(), c.Data())

	d := Randn(Shape{4, 4}, rand.New(rand.NewSource(4)), b)
	assert.NotEqual(t, a.Data(), d.Data())
}

func TestUniformRange(t *testing.T) {
	b := newFakeBackend()
	u := Uniform(Shape{100}, -0.5, 0.5, rand.New(rand.NewSource(1)), b)
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.Less(t, v, float32(0.5))
	}
}

func TestFromSliceAndData(t *testing.T) {
	b := newFakeBackend()
	x := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, x.Data())

	assert.Panics(t, func() {
		FromSlice([]float32{1, 2}, Shape{2, 3}, b)
	})
}

func TestNewChecksDType(t *testing.T) {
	b := newFakeBackend()
	raw := MustNewRaw(Shape{2}, Int32, b.Device())
	assert.Panics(t, func() {
		New[float32](raw, b)
	})
}

// fakeBackend satisfies Backend for creation-function tests without
// pulling in a real compute package.
type fakeBackend struct{ dev Device }

func newFakeBackend() *fakeBackend { return &fakeBackend{} }

func (f *fakeBackend) Name() string   { return "fake" }
func (f *fakeBackend) Device() Device { return f.dev }

func (f *fakeBackend) Add(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) Sub(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) Mul(a, b *RawTensor) *RawTensor { return a.Clone() }
func (f *fakeBackend) Div(a, b *RawTensor) *RawTensor { return a.Clone() }

func (f *fakeBackend) AddScalar(x *RawTensor, s float32) *RawTensor { return x.Clone() }
func (f *fakeBackend) MulScalar(x *RawTensor, s float32) *RawTensor { return x.Clone() }
func (f *fakeBackend) MatMul(a, b *RawTensor) *RawTensor            { return a.Clone() }

func (f *fakeBackend) Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor {
	return input.Clone()
}

func (f *fakeBackend) Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	return input.Clone()
}

func (f *fakeBackend) Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor {
	return kernel.Clone()
}

func (f *fakeBackend) MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor {
	return input.Clone()
}

func (f *fakeBackend) MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor {
	return input.Clone()
}

func (f *fakeBackend) ReLU(x *RawTensor) *RawTensor               { return x.Clone() }
func (f *fakeBackend) ReLUBackward(x, grad *RawTensor) *RawTensor { return x.Clone() }

func (f *fakeBackend) Reshape(x *RawTensor, shape Shape) *RawTensor          { return x.Clone() }
func (f *fakeBackend) Transpose(x *RawTensor, axes ...int) *RawTensor        { return x.Clone() }
func (f *fakeBackend) Sum(x *RawTensor) *RawTensor                           { return x.Clone() }
func (f *fakeBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor { return x.Clone() }
func (f *fakeBackend) Argmax(x *RawTensor, dim int) *RawTensor               { return x.Clone() }

var _ Backend = (*fakeBackend)(nil)
