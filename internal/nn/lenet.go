package nn

import (
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// NewLeNet builds the digit classifier: two convolution+max-pool blocks,
// a flattening step and two dense layers producing 10 logits. Input is
// [N,1,28,28]; after conv(5)+pool(2) twice the feature map is [N,50,4,4],
// so the first dense layer sees 800 features.
func NewLeNet[B tensor.Backend](rng *rand.Rand, backend B) *Sequential[B] {
	return NewSequential[B](
		NewConv2D("conv1", 1, 20, 5, 1, 0, true, rng, backend),
		NewReLU[B](),
		NewMaxPool2D[B](2, 2),
		NewConv2D("conv2", 20, 50, 5, 1, 0, true, rng, backend),
		NewReLU[B](),
		NewMaxPool2D[B](2, 2),
		NewFlatten[B](),
		NewLinear("fc1", 800, 128, rng, backend),
		NewReLU[B](),
		NewLinear("fc2", 128, 10, rng, backend),
	)
}
