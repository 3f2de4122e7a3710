// Package ops holds the differentiable operation records the autodiff
// tape replays in reverse. Each record keeps the raw tensors involved in
// a forward computation plus whatever the backward rule needs.
package ops

import "github.com/lockstep-ml/lockstep/internal/tensor"

// Operation is one recorded forward computation. Backward receives the
// gradient flowing into the output and returns one gradient per input,
// aligned with Inputs(); a nil entry means that input takes no gradient.
type Operation interface {
	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
}
