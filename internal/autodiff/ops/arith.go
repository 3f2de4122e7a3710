package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// AddOp records out = a + b with broadcasting.
type AddOp struct {
	a, b, out *tensor.RawTensor
}

func NewAdd(a, b, out *tensor.RawTensor) *AddOp { return &AddOp{a: a, b: b, out: out} }

func (op *AddOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *AddOp) Output() *tensor.RawTensor   { return op.out }

func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(outputGrad, op.b.Shape(), backend),
	}
}

// SubOp records out = a - b with broadcasting.
type SubOp struct {
	a, b, out *tensor.RawTensor
}

func NewSub(a, b, out *tensor.RawTensor) *SubOp { return &SubOp{a: a, b: b, out: out} }

func (op *SubOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *SubOp) Output() *tensor.RawTensor   { return op.out }

func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		negate(reduceBroadcast(outputGrad, op.b.Shape(), backend), backend),
	}
}

// MulOp records out = a * b with broadcasting.
type MulOp struct {
	a, b, out *tensor.RawTensor
}

func NewMul(a, b, out *tensor.RawTensor) *MulOp { return &MulOp{a: a, b: b, out: out} }

func (op *MulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *MulOp) Output() *tensor.RawTensor   { return op.out }

func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, op.b), op.a.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad, op.a), op.b.Shape(), backend),
	}
}

// DivOp records out = a / b with broadcasting.
type DivOp struct {
	a, b, out *tensor.RawTensor
}

func NewDiv(a, b, out *tensor.RawTensor) *DivOp { return &DivOp{a: a, b: b, out: out} }

func (op *DivOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }
func (op *DivOp) Output() *tensor.RawTensor   { return op.out }

func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	// d(a/b)/da = 1/b, d(a/b)/db = -a/b^2
	gradA := backend.Div(outputGrad, op.b)
	gradB := backend.Div(backend.Mul(outputGrad, op.a), backend.Mul(op.b, op.b))
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		negate(reduceBroadcast(gradB, op.b.Shape(), backend), backend),
	}
}

// AddScalarOp records out = x + s.
type AddScalarOp struct {
	x, out *tensor.RawTensor
}

func NewAddScalar(x, out *tensor.RawTensor) *AddScalarOp { return &AddScalarOp{x: x, out: out} }

func (op *AddScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *AddScalarOp) Output() *tensor.RawTensor   { return op.out }

func (op *AddScalarOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{outputGrad.Clone()}
}

// MulScalarOp records out = x * s.
type MulScalarOp struct {
	x, out *tensor.RawTensor
	scalar float32
}

func NewMulScalar(x, out *tensor.RawTensor, scalar float32) *MulScalarOp {
	return &MulScalarOp{x: x, out: out, scalar: scalar}
}

func (op *MulScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.x} }
func (op *MulScalarOp) Output() *tensor.RawTensor   { return op.out }

func (op *MulScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
}

// reduceBroadcast folds a gradient back to the shape of a broadcast input
// by summing along stretched dimensions.
func reduceBroadcast(grad *tensor.RawTensor, target tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(target) {
		return grad.Clone()
	}
	g := grad
	for len(g.Shape()) > len(target) {
		g = backend.SumDim(g, 0, false)
	}
	for d := 0; d < len(target); d++ {
		if target[d] == 1 && g.Shape()[d] > 1 {
			g = backend.SumDim(g, d, true)
		}
	}
	if !g.Shape().Equal(target) {
		g = backend.Reshape(g, target)
	}
	return g
}

func negate(t *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(t, -1)
}
