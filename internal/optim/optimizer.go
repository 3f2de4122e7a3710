// Package optim implements gradient-descent optimizers over nn
// parameters. An optimizer is bound to one replica's parameter list; in
// data-parallel training the trainer installs the combined cross-replica
// gradient into those parameters before calling Step, then broadcasts
// the updated values to the remaining replicas.
package optim

import (
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Optimizer updates the parameters it was constructed with from their
// current gradient buffers. Parameters with a nil gradient are skipped.
type Optimizer[B tensor.Backend] interface {
	// Step applies one update from the accumulated gradients.
	Step()
	// ZeroGrad clears all gradient buffers.
	ZeroGrad()
	// LR returns the current learning rate.
	LR() float32
	// SetLR changes the learning rate, for schedules.
	SetLR(lr float32)
	// Parameters returns the bound parameter list.
	Parameters() []*nn.Parameter[B]
}
