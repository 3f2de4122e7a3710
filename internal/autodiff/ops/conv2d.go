package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// Conv2DOp records out = conv2d(input, kernel, stride, padding).
type Conv2DOp struct {
	input, kernel, out *tensor.RawTensor
	stride, padding    int
}

func NewConv2D(input, kernel, out *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{input: input, kernel: kernel, out: out, stride: stride, padding: padding}
}

func (op *Conv2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input, op.kernel} }
func (op *Conv2DOp) Output() *tensor.RawTensor   { return op.out }

func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	gradKernel := backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	return []*tensor.RawTensor{gradInput, gradKernel}
}
