package nn

import (
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Linear is a fully-connected layer: y = x @ W + b.
type Linear[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]
}

// NewLinear creates a dense layer mapping inFeatures to outFeatures,
// Xavier-initialized from rng with a zero bias.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, rng, backend)
	bias := tensor.Zeros[float32](tensor.Shape{1, outFeatures}, backend)
	return &Linear[B]{
		weight: NewParameter(name+".weight", weight),
		bias:   NewParameter(name+".bias", bias),
	}
}

func (l *Linear[B]) Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B] {
	return x.MatMul(l.weight.Value()).Add(l.bias.Value())
}

func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}
