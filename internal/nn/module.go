// Package nn provides the layer primitives the digit classifier is built
// from: convolution, pooling, dense layers, activations and the softmax
// cross-entropy loss, plus the Parameter type their learnable state lives
// in.
package nn

import "github.com/lockstep-ml/lockstep/internal/tensor"

// Module is a network building block. Forward runs on the module's
// backend; Parameters exposes learnable state in a stable order, the
// order replica groups and optimizers align on.
type Module[B tensor.Backend] interface {
	Forward(x tensor.Tensor[float32, B]) tensor.Tensor[float32, B]
	Parameters() []*Parameter[B]
}
