package nn

import "github.com/lockstep-ml/lockstep/internal/tensor"

// Flatten collapses all dimensions after the batch axis into one.
type Flatten[B tensor.Backend] struct{}

func NewFlatten[B tensor.Backend]() *Flatten[B] { return &Flatten[B]{} }

func (f *Flatten[B]) Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B] {
	shape := x.Shape()
	rest := 1
	for _, d := range shape[1:] {
		rest *= d
	}
	return x.Reshape(tensor.Shape{shape[0], rest})
}

func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }
