package cpu

import (
	"github.com/lockstep-ml/lockstep/internal/parallel"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a Conv2D output with
// respect to its input: each output gradient element is scattered back
// through the kernel window it was produced from. Parallel over batch
// entries; within one entry the output channels are walked sequentially
// because they accumulate into the same input plane.
func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32("Conv2DInputBackward", input, kernel, grad)
	n, c, h, w, o, kh, kw, oh, ow := convDims("Conv2DInputBackward", input, kernel, stride, padding)

	out := b.alloc(input.Shape(), tensor.Float32)
	kd, gd, od := kernel.Float32(), grad.Float32(), out.Float32()

	parallel.For(n, 1, func(lo, hi int) {
		for ni := lo; ni < hi; ni++ {
			gradInBase := ni * c * h * w
			for oi := 0; oi < o; oi++ {
				gBase := (ni*o + oi) * oh * ow
				kBase := oi * c * kh * kw
				for y := 0; y < oh; y++ {
					for x := 0; x < ow; x++ {
						g := gd[gBase+y*ow+x]
						if g == 0 {
							continue
						}
						for ci := 0; ci < c; ci++ {
							giPlane := od[gradInBase+ci*h*w : gradInBase+(ci+1)*h*w]
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
									giPlane[iy*w+ix] += g * kPlane[ky*kw+kx]
								}
							}
						}
					}
				}
			}
		}
	})
	return out
}

// Conv2DKernelBackward computes the gradient with respect to the kernel:
// a correlation of the input with the output gradient. Parallel over
// output channels, which own disjoint kernel slices.
func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32("Conv2DKernelBackward", input, kernel, grad)
	n, c, h, w, o, kh, kw, oh, ow := convDims("Conv2DKernelBackward", input, kernel, stride, padding)

	out := b.alloc(kernel.Shape(), tensor.Float32)
	in, gd, od := input.Float32(), grad.Float32(), out.Float32()

	parallel.For(o, 1, func(lo, hi int) {
		for oi := lo; oi < hi; oi++ {
			kBase := oi * c * kh * kw
			for ni := 0; ni < n; ni++ {
				gBase := (ni*o + oi) * oh * ow
				inBase := ni * c * h * w
				for y := 0; y < oh; y++ {
					for x := 0; x < ow; x++ {
						g := gd[gBase+y*ow+x]
						if g == 0 {
							continue
						}
						for ci := 0; ci < c; ci++ {
							inPlane := in[inBase+ci*h*w : inBase+(ci+1)*h*w]
							gkPlane := od[kBase+ci*kh*kw : kBase+(ci+1)*kh*kw]
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
									gkPlane[ky*kw+kx] += g * inPlane[iy*w+ix]
								}
							}
						}
					}
				}
			}
		}
	})
	return out
}
