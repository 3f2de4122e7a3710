package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// ReLUOp records out = max(0, input).
type ReLUOp struct {
	input, out *tensor.RawTensor
}

func NewReLU(input, out *tensor.RawTensor) *ReLUOp { return &ReLUOp{input: input, out: out} }

func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReLUOp) Output() *tensor.RawTensor   { return op.out }

func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.ReLUBackward(op.input, outputGrad)}
}
