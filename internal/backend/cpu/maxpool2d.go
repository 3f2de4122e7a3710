package cpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/parallel"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

func poolDims(op string, input *tensor.RawTensor, kernelSize, stride int) (int, int, int, int, int, int) {
	is := input.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("cpu: %s requires 4D input, got %v", op, is))
	}
	if kernelSize < 1 || stride < 1 {
		panic(fmt.Sprintf("cpu: %s invalid kernel %d or stride %d", op, kernelSize, stride))
	}
	n, c, h, w := is[0], is[1], is[2], is[3]
	oh := (h-kernelSize)/stride + 1
	ow := (w-kernelSize)/stride + 1
	if oh < 1 || ow < 1 {
		panic(fmt.Sprintf("cpu: %s window %d larger than input %v", op, kernelSize, is))
	}
	return n, c, h, w, oh, ow
}

// MaxPool2D takes the maximum over each kernelSize×kernelSize window of
// input [N,C,H,W]. Ties resolve to the first element in scan order, the
// same rule MaxPool2DBackward's index computation uses.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	requireFloat32("MaxPool2D", input)
	n, c, h, w, oh, ow := poolDims("MaxPool2D", input, kernelSize, stride)

	out := b.alloc(tensor.Shape{n, c, oh, ow}, tensor.Float32)
	in, od := input.Float32(), out.Float32()

	parallel.For(n*c, 1, func(lo, hi int) {
		for plane := lo; plane < hi; plane++ {
			inPlane := in[plane*h*w : (plane+1)*h*w]
			outPlane := od[plane*oh*ow : (plane+1)*oh*ow]
			for y := 0; y < oh; y++ {
				for x := 0; x < ow; x++ {
					best := inPlane[y*stride*w+x*stride]
					for ky := 0; ky < kernelSize; ky++ {
						row := (y*stride + ky) * w
						for kx := 0; kx < kernelSize; kx++ {
							if v := inPlane[row+x*stride+kx]; v > best {
								best = v
							}
						}
					}
					outPlane[y*ow+x] = best
				}
			}
		}
	})
	return out
}

// MaxPool2DBackward routes each output gradient element to the input
// position that produced the maximum. maxIndices holds one flat input
// index per output element, in output scan order. Windows may overlap
// when stride < kernelSize, so accumulation within a plane is sequential
// and only planes run in parallel.
func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	requireFloat32("MaxPool2DBackward", input, grad)
	n, c, _, _, oh, ow := poolDims("MaxPool2DBackward", input, kernelSize, stride)
	if len(maxIndices) != n*c*oh*ow {
		panic(fmt.Sprintf("cpu: MaxPool2DBackward got %d indices, want %d", len(maxIndices), n*c*oh*ow))
	}

	out := b.alloc(input.Shape(), tensor.Float32)
	gd, od := grad.Float32(), out.Float32()

	parallel.For(n*c, 1, func(lo, hi int) {
		for plane := lo; plane < hi; plane++ {
			base := plane * oh * ow
			for i := base; i < base+oh*ow; i++ {
				od[maxIndices[i]] += gd[i]
			}
		}
	})
	return out
}
