package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// MaxPool2DOp records out = maxpool2d(input, kernelSize, stride). The
// winning positions are recomputed from the saved input at backward time,
// using the same first-in-scan-order tie rule as the forward kernels.
type MaxPool2DOp struct {
	input, out         *tensor.RawTensor
	kernelSize, stride int
}

func NewMaxPool2D(input, out *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{input: input, out: out, kernelSize: kernelSize, stride: stride}
}

func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *MaxPool2DOp) Output() *tensor.RawTensor   { return op.out }

func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	indices := computeMaxIndices(op.input, op.kernelSize, op.stride)
	grad := backend.MaxPool2DBackward(op.input, outputGrad, indices, op.kernelSize, op.stride)
	return []*tensor.RawTensor{grad}
}

// computeMaxIndices returns, for each pooled output element in scan order,
// the flat index of the input element that produced it.
func computeMaxIndices(input *tensor.RawTensor, kernelSize, stride int) []int {
	shape := input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	oh := (h-kernelSize)/stride + 1
	ow := (w-kernelSize)/stride + 1
	data := input.Float32()

	indices := make([]int, n*c*oh*ow)
	pos := 0
	for plane := 0; plane < n*c; plane++ {
		base := plane * h * w
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				bestIdx := base + y*stride*w + x*stride
				best := data[bestIdx]
				for ky := 0; ky < kernelSize; ky++ {
					for kx := 0; kx < kernelSize; kx++ {
						idx := base + (y*stride+ky)*w + x*stride + kx
						if data[idx] > best {
							best, bestIdx = data[idx], idx
						}
					}
				}
				indices[pos] = bestIdx
				pos++
			}
		}
	}
	return indices
}
