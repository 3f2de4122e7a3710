package nn

import "github.com/lockstep-ml/lockstep/internal/tensor"

// Sequential chains modules, feeding each output into the next layer.
type Sequential[B tensor.Backend] struct {
	layers []Module[B]
}

func NewSequential[B tensor.Backend](layers ...Module[B]) *Sequential[B] {
	return &Sequential[B]{layers: layers}
}

func (s *Sequential[B]) Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B] {
	for _, layer := range s.layers {
		x = layer.Forward(x)
	}
	return x
}

func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}
