package tensor

import (
	"fmt"
	"unsafe"
)

// Tensor is the typed view over a RawTensor, parameterized by element type
// and by the backend that owns its device. Operations delegate to the
// backend and wrap the result, so chains stay on one device.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps an existing RawTensor. The raw dtype must match T.
func New[T DType, B Backend](raw *RawTensor, backend B) Tensor[T, B] {
	if raw.DType() != DataTypeOf[T]() {
		panic(fmt.Sprintf("tensor: wrapping %s raw as %s", raw.DType(), DataTypeOf[T]()))
	}
	return Tensor[T, B]{raw: raw, backend: backend}
}

func (t Tensor[T, B]) Raw() *RawTensor { return t.raw }
func (t Tensor[T, B]) Backend() B      { return t.backend }
func (t Tensor[T, B]) Shape() Shape    { return t.raw.Shape() }
func (t Tensor[T, B]) Device() Device  { return t.raw.Device() }
func (t Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Data views the buffer as a typed slice. Writes mutate the tensor.
func (t Tensor[T, B]) Data() []T {
	data := t.raw.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), t.raw.NumElements())
}

func (t Tensor[T, B]) wrap(raw *RawTensor) Tensor[T, B] {
	return Tensor[T, B]{raw: raw, backend: t.backend}
}

func (t Tensor[T, B]) Add(other Tensor[T, B]) Tensor[T, B] {
	return t.wrap(t.backend.Add(t.raw, other.raw))
}

func (t Tensor[T, B]) Sub(other Tensor[T, B]) Tensor[T, B] {
	return t.wrap(t.backend.Sub(t.raw, other.raw))
}

func (t Tensor[T, B]) Mul(other Tensor[T, B]) Tensor[T, B] {
	return t.wrap(t.backend.Mul(t.raw, other.raw))
}

func (t Tensor[T, B]) Div(other Tensor[T, B]) Tensor[T, B] {
	return t.wrap(t.backend.Div(t.raw, other.raw))
}

func (t Tensor[T, B]) AddScalar(s float32) Tensor[T, B] {
	return t.wrap(t.backend.AddScalar(t.raw, s))
}

func (t Tensor[T, B]) MulScalar(s float32) Tensor[T, B] {
	return t.wrap(t.backend.MulScalar(t.raw, s))
}

func (t Tensor[T, B]) MatMul(other Tensor[T, B]) Tensor[T, B] {
	return t.wrap(t.backend.MatMul(t.raw, other.raw))
}

func (t Tensor[T, B]) Conv2D(kernel Tensor[T, B], stride, padding int) Tensor[T, B] {
	return t.wrap(t.backend.Conv2D(t.raw, kernel.raw, stride, padding))
}

func (t Tensor[T, B]) MaxPool2D(kernelSize, stride int) Tensor[T, B] {
	return t.wrap(t.backend.MaxPool2D(t.raw, kernelSize, stride))
}

func (t Tensor[T, B]) ReLU() Tensor[T, B] {
	return t.wrap(t.backend.ReLU(t.raw))
}

func (t Tensor[T, B]) Reshape(shape Shape) Tensor[T, B] {
	return t.wrap(t.backend.Reshape(t.raw, shape))
}

func (t Tensor[T, B]) Transpose(axes ...int) Tensor[T, B] {
	return t.wrap(t.backend.Transpose(t.raw, axes...))
}

// Sum reduces all elements to a [1] tensor.
func (t Tensor[T, B]) Sum() Tensor[T, B] {
	return t.wrap(t.backend.Sum(t.raw))
}

func (t Tensor[T, B]) SumDim(dim int, keepDim bool) Tensor[T, B] {
	return t.wrap(t.backend.SumDim(t.raw, dim, keepDim))
}

// Argmax reduces along dim, yielding int32 indices.
func Argmax[T DType, B Backend](t Tensor[T, B], dim int) Tensor[int32, B] {
	return Tensor[int32, B]{raw: t.backend.Argmax(t.raw, dim), backend: t.backend}
}

func (t Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s](%s, %s)", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}
