package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// ReshapeOp records out = reshape(input).
type ReshapeOp struct {
	input, out *tensor.RawTensor
}

func NewReshape(input, out *tensor.RawTensor) *ReshapeOp { return &ReshapeOp{input: input, out: out} }

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *ReshapeOp) Output() *tensor.RawTensor   { return op.out }

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// TransposeOp records out = transpose(input, axes).
type TransposeOp struct {
	input, out *tensor.RawTensor
	axes       []int
}

func NewTranspose(input, out *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{input: input, out: out, axes: axes}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *TransposeOp) Output() *tensor.RawTensor   { return op.out }

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	axes := op.axes
	if len(axes) == 0 {
		// A full reversal is its own inverse.
		return []*tensor.RawTensor{backend.Transpose(outputGrad)}
	}
	inverse := make([]int, len(axes))
	for i, ax := range axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// SumOp records out = sum(input), a full reduction to [1].
type SumOp struct {
	input, out *tensor.RawTensor
}

func NewSum(input, out *tensor.RawTensor) *SumOp { return &SumOp{input: input, out: out} }

func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumOp) Output() *tensor.RawTensor   { return op.out }

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), tensor.Float32, op.input.Device())
	g := outputGrad.Float32()[0]
	data := grad.Float32()
	for i := range data {
		data[i] = g
	}
	return []*tensor.RawTensor{grad}
}

// SumDimOp records out = sum(input, dim, keepDim).
type SumDimOp struct {
	input, out *tensor.RawTensor
	dim        int
	keepDim    bool
}

func NewSumDim(input, out *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{input: input, out: out, dim: dim, keepDim: keepDim}
}

func (op *SumDimOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }
func (op *SumDimOp) Output() *tensor.RawTensor   { return op.out }

func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// Reinstate the reduced axis as size 1, then let broadcasting stretch
	// the gradient across the input shape.
	g := outputGrad
	if !op.keepDim {
		kept := op.input.Shape().Clone()
		kept[op.dim] = 1
		g = backend.Reshape(g, kept)
	}
	zeros := tensor.MustNewRaw(op.input.Shape(), tensor.Float32, op.input.Device())
	return []*tensor.RawTensor{backend.Add(zeros, g)}
}
