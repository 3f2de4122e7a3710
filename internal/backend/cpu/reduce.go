package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Sum reduces all elements to a [1] tensor. Accumulation runs in float64
// so the result does not depend on how callers chunk their data.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("Sum", x)
	var acc float64
	for _, v := range x.Float32() {
		acc += float64(v)
	}
	out := b.alloc(tensor.Shape{1}, tensor.Float32)
	out.Float32()[0] = float32(acc)
	return out
}

// SumDim reduces along dim. With keepDim the reduced axis stays as size 1,
// otherwise it is dropped (a full reduction of a 1D tensor yields [1]).
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	requireFloat32("SumDim", x)
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: SumDim dim %d out of range for %v", dim, shape))
	}

	outer, size, inner := splitAt(shape, dim)
	outShape := reducedShape(shape, dim, keepDim)
	out := b.alloc(outShape, tensor.Float32)
	xd, od := x.Float32(), out.Float32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var acc float64
			base := o*size*inner + i
			for s := 0; s < size; s++ {
				acc += float64(xd[base+s*inner])
			}
			od[o*inner+i] = float32(acc)
		}
	}
	return out
}

// Argmax returns int32 indices of the maximum along dim, ties going to
// the lowest index. The reduced axis is dropped.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32("Argmax", x)
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu: Argmax dim %d out of range for %v", dim, shape))
	}

	outer, size, inner := splitAt(shape, dim)
	out := b.alloc(reducedShape(shape, dim, false), tensor.Int32)
	xd, od := x.Float32(), out.Int32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*size*inner + i
			best, bestIdx := xd[base], 0
			for s := 1; s < size; s++ {
				if v := xd[base+s*inner]; v > best {
					best, bestIdx = v, s
				}
			}
			od[o*inner+i] = int32(bestIdx)
		}
	}
	return out
}

// splitAt factors a shape around dim into (outer, size, inner) extents.
func splitAt(shape tensor.Shape, dim int) (int, int, int) {
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		if i == dim {
			if keepDim {
				out = append(out, 1)
			}
			continue
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}
