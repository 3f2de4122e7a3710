// Package autodiff implements tape-based reverse-mode differentiation as
// a decorator over any compute backend. The decorated backend executes
// operations on its inner backend and, while its tape is recording,
// appends backward records for every float32 operation. Calling Backward
// replays the tape in reverse and returns gradients keyed by raw tensor.
package autodiff

import (
	"github.com/lockstep-ml/lockstep/internal/autodiff/ops"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Backend decorates an inner compute backend with gradient recording.
// It satisfies tensor.Backend itself, so models built on it are unaware
// of the tape.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *Tape
}

// New wraps a compute backend with a fresh tape.
func New[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{inner: inner, tape: NewTape()}
}

// Inner returns the wrapped compute backend.
func (b *Backend[B]) Inner() B { return b.inner }

// Tape returns the gradient tape driving this backend.
func (b *Backend[B]) Tape() *Tape { return b.tape }

// Backward computes gradients of loss with respect to every tensor that
// participated in recorded operations. Replay runs on the inner backend
// so no new operations are recorded.
func (b *Backend[B]) Backward(loss *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	return b.tape.Backward(loss, b.inner)
}

func (b *Backend[B]) Name() string          { return "autodiff(" + b.inner.Name() + ")" }
func (b *Backend[B]) Device() tensor.Device { return b.inner.Device() }

func (b *Backend[B]) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Add(a, other)
	b.tape.Record(ops.NewAdd(a, other, out))
	return out
}

func (b *Backend[B]) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sub(a, other)
	b.tape.Record(ops.NewSub(a, other, out))
	return out
}

func (b *Backend[B]) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Mul(a, other)
	b.tape.Record(ops.NewMul(a, other, out))
	return out
}

func (b *Backend[B]) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Div(a, other)
	b.tape.Record(ops.NewDiv(a, other, out))
	return out
}

func (b *Backend[B]) AddScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := b.inner.AddScalar(x, s)
	b.tape.Record(ops.NewAddScalar(x, out))
	return out
}

func (b *Backend[B]) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	out := b.inner.MulScalar(x, s)
	b.tape.Record(ops.NewMulScalar(x, out, s))
	return out
}

func (b *Backend[B]) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.MatMul(a, other)
	b.tape.Record(ops.NewMatMul(a, other, out))
	return out
}

func (b *Backend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	out := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record(ops.NewConv2D(input, kernel, out, stride, padding))
	return out
}

func (b *Backend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out := b.inner.MaxPool2D(input, kernelSize, stride)
	b.tape.Record(ops.NewMaxPool2D(input, out, kernelSize, stride))
	return out
}

func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLU(x, out))
	return out
}

func (b *Backend[B]) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(x, shape)
	if x.DType() == tensor.Float32 {
		b.tape.Record(ops.NewReshape(x, out))
	}
	return out
}

func (b *Backend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := b.inner.Transpose(x, axes...)
	b.tape.Record(ops.NewTranspose(x, out, axes))
	return out
}

func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sum(x)
	b.tape.Record(ops.NewSum(x, out))
	return out
}

func (b *Backend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := b.inner.SumDim(x, dim, keepDim)
	b.tape.Record(ops.NewSumDim(x, out, dim, keepDim))
	return out
}

// Argmax takes no gradient; it passes straight through.
func (b *Backend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// CrossEntropy computes softmax cross-entropy of logits against int32
// class targets and records its backward rule. With sumLoss the
// per-example losses are summed instead of averaged.
func (b *Backend[B]) CrossEntropy(logits, targets *tensor.RawTensor, sumLoss bool) *tensor.RawTensor {
	out := ops.CrossEntropyForward(logits, targets, sumLoss, b.inner.Device())
	b.tape.Record(ops.NewCrossEntropy(logits, targets, out, sumLoss))
	return out
}

// The backward kernels pass through unrecorded; they only run during
// tape replay.

func (b *Backend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

func (b *Backend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

func (b *Backend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, maxIndices, kernelSize, stride)
}

func (b *Backend[B]) ReLUBackward(x, grad *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.ReLUBackward(x, grad)
}

// Compile-time check.
var _ tensor.Backend = (*Backend[tensor.Backend])(nil)
