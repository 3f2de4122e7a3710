package nn

import (
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Conv2D is a 2D convolution layer with a square kernel and an optional
// per-channel bias.
type Conv2D[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B]

	stride, padding int
}

// NewConv2D creates a convolution of inChannels to outChannels with a
// kernelSize×kernelSize kernel. Weights are Xavier-initialized from rng;
// the bias starts at zero.
func NewConv2D[B tensor.Backend](name string, inChannels, outChannels, kernelSize, stride, padding int, useBias bool, rng *rand.Rand, backend B) *Conv2D[B] {
	fanIn := inChannels * kernelSize * kernelSize
	fanOut := outChannels * kernelSize * kernelSize
	weight := Xavier(fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, rng, backend)

	c := &Conv2D[B]{
		weight:  NewParameter(name+".weight", weight),
		stride:  stride,
		padding: padding,
	}
	if useBias {
		// Shaped [1,O,1,1] so the forward add broadcasts over batch and
		// spatial dimensions.
		bias := tensor.Zeros[float32](tensor.Shape{1, outChannels, 1, 1}, backend)
		c.bias = NewParameter(name+".bias", bias)
	}
	return c
}

func (c *Conv2D[B]) Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B] {
	y := x.Conv2D(c.weight.Value(), c.stride, c.padding)
	if c.bias != nil {
		y = y.Add(c.bias.Value())
	}
	return y
}

func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias == nil {
		return []*Parameter[B]{c.weight}
	}
	return []*Parameter[B]{c.weight, c.bias}
}
