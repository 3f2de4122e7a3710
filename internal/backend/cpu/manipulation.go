package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Reshape copies the buffer under a new shape with the same element count.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if err := shape.Validate(); err != nil {
		panic("cpu: Reshape: " + err.Error())
	}
	if shape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("cpu: Reshape %v to %v changes element count", x.Shape(), shape))
	}
	out := b.alloc(shape, x.DType())
	copy(out.Data(), x.Data())
	return out
}

// Transpose permutes dimensions. With no axes given, all dimensions are
// reversed (the matrix transpose for 2D input).
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	nd := len(shape)
	if len(axes) == 0 {
		axes = make([]int, nd)
		for i := range axes {
			axes[i] = nd - 1 - i
		}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("cpu: Transpose got %d axes for %dD tensor", len(axes), nd))
	}
	seen := make([]bool, nd)
	outShape := make(tensor.Shape, nd)
	for i, ax := range axes {
		if ax < 0 || ax >= nd || seen[ax] {
			panic(fmt.Sprintf("cpu: Transpose invalid axes %v for %v", axes, shape))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	requireFloat32("Transpose", x)
	out := b.alloc(outShape, tensor.Float32)
	xd, od := x.Float32(), out.Float32()

	inStrides := shape.Strides()
	outStrides := outShape.Strides()
	for i := range od {
		src := 0
		for d := 0; d < nd; d++ {
			coord := (i / outStrides[d]) % outShape[d]
			src += coord * inStrides[axes[d]]
		}
		od[i] = xd[src]
	}
	return out
}
