package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/parallel"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// convDims validates conv shapes and returns (n, c, h, w, o, kh, kw, oh, ow).
func convDims(op string, input, kernel *tensor.RawTensor, stride, padding int) (int, int, int, int, int, int, int, int, int) {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 || len(ks) != 4 {
		panic(fmt.Sprintf("cpu: %s requires 4D input and kernel, got %v and %v", op, is, ks))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("cpu: %s channel mismatch: input %v kernel %v", op, is, ks))
	}
	if stride < 1 || padding < 0 {
		panic(fmt.Sprintf("cpu: %s invalid stride %d or padding %d", op, stride, padding))
	}
	n, c, h, w := is[0], is[1], is[2], is[3]
	o, kh, kw := ks[0], ks[2], ks[3]
	oh := (h+2*padding-kh)/stride + 1
	ow := (w+2*padding-kw)/stride + 1
	if oh < 1 || ow < 1 {
		panic(fmt.Sprintf("cpu: %s kernel %v larger than padded input %v", op, ks, is))
	}
	return n, c, h, w, o, kh, kw, oh, ow
}

// Conv2D convolves input [N,C,H,W] with kernel [O,C,KH,KW] into
// [N,OH,OW] per output channel. Work is distributed over the N*O output
// planes.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32("Conv2D", input, kernel)
	n, c, h, w, o, kh, kw, oh, ow := convDims("Conv2D", input, kernel, stride, padding)

	out := b.alloc(tensor.Shape{n, o, oh, ow}, tensor.Float32)
	in, kd, od := input.Float32(), kernel.Float32(), out.Float32()

	parallel.For(n*o, 1, func(lo, hi int) {
		for plane := lo; plane < hi; plane++ {
			ni, oi := plane/o, plane%o
			inBase := ni * c * h * w
			kBase := oi * c * kh * kw
			outBase := plane * oh * ow
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					var acc float32
					for ci := 0; ci < c; ci++ {
						inPlane := in[inBase+ci*h*w : inBase+(ci+1)*h*w]
						kPlane := kd[kBase+ci*kh*kw : kBase+(ci+1)*kh*kw]
						for ky := 0; ky < kh; ky++ {
							iy := y*stride - padding + ky
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := x*stride - padding + kx
								if ix < 0 || ix >= w {
									continue
								}
								acc += inPlane[iy*w+ix] * kPlane[ky*kw+kx]
							}
						}
					}
					od[outBase+y*ow+x] = acc
				}
			}
		}
	})
	return out
}
