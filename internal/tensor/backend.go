package tensor

// Backend is the contract every compute backend implements. All methods
// allocate and return fresh output tensors stamped with the backend's
// device; inputs are never mutated. Shape or dtype misuse panics, the
// same contract layer code relies on.
//
// Backward kernels (the *Backward methods) live on the interface so the
// autodiff layer can drive any backend without knowing its concrete type.
type Backend interface {
	// Element-wise arithmetic with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar arithmetic on float32 tensors.
	AddScalar(x *RawTensor, s float32) *RawTensor
	MulScalar(x *RawTensor, s float32) *RawTensor

	// MatMul multiplies [M,K] by [K,N] into [M,N].
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves input [N,C,H,W] with kernel [O,C,KH,KW].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// MaxPool2D pools input [N,C,H,W] with a square window.
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, maxIndices []int, kernelSize, stride int) *RawTensor

	ReLU(x *RawTensor) *RawTensor
	ReLUBackward(x, grad *RawTensor) *RawTensor

	// Shape manipulation. Reshape requires matching element counts;
	// Transpose with no axes reverses all dimensions.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Name identifies the backend implementation ("cpu", "webgpu").
	Name() string
	// Device is the compute unit this backend instance is bound to.
	Device() Device
}
