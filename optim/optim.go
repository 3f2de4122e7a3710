// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient descent optimizers.
package optim

import (
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/optim"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Optimizer is the common interface for all optimizers.
type Optimizer[B tensor.Backend] = optim.Optimizer[B]

// SGD is the stochastic gradient descent optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// NewSGD creates a new SGD optimizer over the given parameters. Momentum
// of zero gives the plain update w -= lr * grad.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), 0.01, 0.9)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum float32) *SGD[B] {
	return optim.NewSGD(params, lr, momentum)
}

// Adam is the Adam optimizer with bias-corrected moment estimates.
type Adam[B tensor.Backend] = optim.Adam[B]

// NewAdam creates a new Adam optimizer with the default betas and epsilon.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], lr float32) *Adam[B] {
	return optim.NewAdam(params, lr)
}
