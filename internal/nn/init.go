package nn

import (
	"math"
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Xavier draws weights uniformly from [-limit, limit] with
// limit = sqrt(6 / (fanIn + fanOut)). The caller supplies the RNG, so
// identical seeds produce identical weights regardless of device.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return tensor.Uniform(shape, -limit, limit, rng, backend)
}
