// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend with a gradient tape: operations run during the
// forward pass are recorded, and Backward replays them in reverse to
// accumulate gradients.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
//
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	y := x.Add(x) // recorded on the tape
//	grads := backend.Backward(y.Sum().Raw())
package autodiff

import (
	"github.com/lockstep-ml/lockstep/internal/autodiff"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Backend is the autodiff-enabled backend wrapping an inner backend B.
type Backend[B tensor.Backend] = autodiff.Backend[B]

// Tape records operations for reverse-mode differentiation.
type Tape = autodiff.Tape

// New creates a new autodiff backend wrapping the given backend with a
// fresh tape.
func New[B tensor.Backend](inner B) *Backend[B] {
	return autodiff.New(inner)
}
