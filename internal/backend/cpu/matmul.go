package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/parallel"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// MatMul multiplies [M,K] by [K,N] into [M,N]. Rows are distributed
// across worker goroutines; the inner i-k-j order keeps accesses to b
// sequential.
func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("MatMul", a, other)
	as, bs := a.Shape(), other.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("cpu: MatMul requires 2D tensors, got %v and %v", as, bs))
	}
	m, k, n := as[0], as[1], bs[1]
	if bs[0] != k {
		panic(fmt.Sprintf("cpu: MatMul shape mismatch %v @ %v", as, bs))
	}

	out := b.alloc(tensor.Shape{m, n}, tensor.Float32)
	ad, bd, od := a.Float32(), other.Float32(), out.Float32()
	parallel.For(m, 8, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			arow := ad[i*k : (i+1)*k]
			orow := od[i*n : (i+1)*n]
			for kk := 0; kk < k; kk++ {
				av := arow[kk]
				if av == 0 {
					continue
				}
				brow := bd[kk*n : (kk+1)*n]
				for j := 0; j < n; j++ {
					orow[j] += av * brow[j]
				}
			}
		}
	})
	return out
}
