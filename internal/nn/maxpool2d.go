package nn

import "github.com/lockstep-ml/lockstep/internal/tensor"

// MaxPool2D downsamples by taking the maximum over square windows.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize, stride int
}

func NewMaxPool2D[B tensor.Backend](kernelSize, stride int) *MaxPool2D[B] {
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride}
}

func (m *MaxPool2D[B]) Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B] {
	return x.MaxPool2D(m.kernelSize, m.stride)
}

func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }
