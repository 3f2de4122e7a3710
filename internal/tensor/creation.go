package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a zero-filled tensor on the backend's device.
func Zeros[T DType, B Backend](shape Shape, backend B) Tensor[T, B] {
	raw := MustNewRaw(shape, DataTypeOf[T](), backend.Device())
	return New[T](raw, backend)
}

// Ones creates a one-filled tensor on the backend's device.
func Ones[T DType, B Backend](shape Shape, backend B) Tensor[T, B] {
	return Full[T](shape, T(1), backend)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, backend B) Tensor[T, B] {
	t := Zeros[T, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// FromSlice creates a tensor from row-major values. The slice is copied.
func FromSlice[T DType, B Backend](values []T, shape Shape, backend B) Tensor[T, B] {
	if len(values) != shape.NumElements() {
		panic(fmt.Sprintf("tensor: %d values for shape %v", len(values), shape))
	}
	t := Zeros[T, B](shape, backend)
	copy(t.Data(), values)
	return t
}

// Randn creates a float32 tensor with standard-normal entries drawn from
// rng. Callers pass a seeded source so runs are reproducible.
func Randn[B Backend](shape Shape, rng *rand.Rand, backend B) Tensor[float32, B] {
	t := Zeros[float32, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return t
}

// Uniform creates a float32 tensor with entries drawn uniformly from
// [low, high).
func Uniform[B Backend](shape Shape, low, high float32, rng *rand.Rand, backend B) Tensor[float32, B] {
	t := Zeros[float32, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = low + (high-low)*rng.Float32()
	}
	return t
}
