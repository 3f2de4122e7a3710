package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/parallel"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(a, other, func(x, y float32) float32 { return x + y })
}

func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(a, other, func(x, y float32) float32 { return x - y })
}

func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(a, other, func(x, y float32) float32 { return x * y })
}

func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	return b.binary(a, other, func(x, y float32) float32 { return x / y })
}

func (b *Backend) AddScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 { return v + s })
}

func (b *Backend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 { return v * s })
}

func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unary(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// ReLUBackward masks grad with the sign of the forward input:
// grad where x > 0, zero elsewhere.
func (b *Backend) ReLUBackward(x, grad *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("ReLUBackward", x, grad)
	if !x.Shape().Equal(grad.Shape()) {
		panic(fmt.Sprintf("cpu: ReLUBackward shape mismatch %v vs %v", x.Shape(), grad.Shape()))
	}
	out := b.alloc(x.Shape(), tensor.Float32)
	xd, gd, od := x.Float32(), grad.Float32(), out.Float32()
	parallel.For(len(od), minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if xd[i] > 0 {
				od[i] = gd[i]
			}
		}
	})
	return out
}

func (b *Backend) unary(x *tensor.RawTensor, f func(float32) float32) *tensor.RawTensor {
	requireFloat32("unary op", x)
	out := b.alloc(x.Shape(), tensor.Float32)
	xd, od := x.Float32(), out.Float32()
	parallel.For(len(od), minChunk, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			od[i] = f(xd[i])
		}
	})
	return out
}

// binary applies f element-wise with broadcasting. The same-shape case is
// a flat parallel loop; the broadcast case walks the output index space.
func (b *Backend) binary(a, other *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	requireFloat32("binary op", a, other)

	if a.Shape().Equal(other.Shape()) {
		out := b.alloc(a.Shape(), tensor.Float32)
		ad, bd, od := a.Float32(), other.Float32(), out.Float32()
		parallel.For(len(od), minChunk, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				od[i] = f(ad[i], bd[i])
			}
		})
		return out
	}

	outShape, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		panic("cpu: " + err.Error())
	}
	out := b.alloc(outShape, tensor.Float32)
	ad, bd, od := a.Float32(), other.Float32(), out.Float32()
	aIdx := broadcastIndexer(a.Shape(), outShape)
	bIdx := broadcastIndexer(other.Shape(), outShape)
	for i := range od {
		od[i] = f(ad[aIdx(i)], bd[bIdx(i)])
	}
	return out
}

// broadcastIndexer maps a flat output index to the flat index of a source
// tensor being broadcast to outShape. Source dimensions of size 1
// contribute index 0.
func broadcastIndexer(src, outShape tensor.Shape) func(int) int {
	srcStrides := src.Strides()
	outStrides := outShape.Strides()
	offset := len(outShape) - len(src)
	return func(flat int) int {
		idx := 0
		for d := 0; d < len(outShape); d++ {
			coord := (flat / outStrides[d]) % outShape[d]
			sd := d - offset
			if sd < 0 || src[sd] == 1 {
				continue
			}
			idx += coord * srcStrides[sd]
		}
		return idx
	}
}

func requireFloat32(op string, ts ...*tensor.RawTensor) {
	for _, t := range ts {
		if t.DType() != tensor.Float32 {
			panic(fmt.Sprintf("cpu: %s requires float32, got %s", op, t.DType()))
		}
	}
}
