package webgpu

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// gpuEligible reports whether a binary op can run on the GPU path:
// float32 operands of identical shape. Broadcasting falls back to the
// host kernels.
func gpuEligible(a, b *tensor.RawTensor) bool {
	return a.DType() == tensor.Float32 && b.DType() == tensor.Float32 && a.Shape().Equal(b.Shape())
}

func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.host.Add(a, other)
	}
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.host.Sub(a, other)
	}
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.host.Mul(a, other)
	}
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(a, other) {
		return b.host.Div(a, other)
	}
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

func (b *Backend) AddScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "add_scalar", addScalarShader, s, true)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

func (b *Backend) MulScalar(x *tensor.RawTensor, s float32) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "mul_scalar", mulScalarShader, s, true)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := b.runUnaryOp(x, "relu", reluShader, 0, false)
	if err != nil {
		panic("webgpu: ReLU: " + err.Error())
	}
	return result
}

func (b *Backend) MatMul(a, other *tensor.RawTensor) *tensor.RawTensor {
	as, os := a.Shape(), other.Shape()
	if len(as) != 2 || len(os) != 2 || as[1] != os[0] {
		panic(fmt.Sprintf("webgpu: MatMul shape mismatch %v @ %v", as, os))
	}
	result, err := b.runMatMul(a, other)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// The remaining kernels run on the host fallback, which stamps results
// with this backend's device.

func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.host.Conv2D(input, kernel, stride, padding)
}

func (b *Backend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.host.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

func (b *Backend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.host.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.host.MaxPool2D(input, kernelSize, stride)
}

func (b *Backend) MaxPool2DBackward(input, grad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	return b.host.MaxPool2DBackward(input, grad, maxIndices, kernelSize, stride)
}

func (b *Backend) ReLUBackward(x, grad *tensor.RawTensor) *tensor.RawTensor {
	return b.host.ReLUBackward(x, grad)
}

func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.host.Reshape(x, shape)
}

func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.host.Transpose(x, axes...)
}

func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.host.Sum(x)
}

func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.host.SumDim(x, dim, keepDim)
}

func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.host.Argmax(x, dim)
}

var _ tensor.Backend = (*Backend)(nil)
