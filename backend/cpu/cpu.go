// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU compute backend.
package cpu

import (
	internalcpu "github.com/lockstep-ml/lockstep/internal/backend/cpu"
	"github.com/lockstep-ml/lockstep/tensor"
)

// Backend is the CPU backend implementation. Kernels are pure Go with
// chunked goroutine parallelism for large tensors.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a backend bound to cpu:0.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewFor creates a backend bound to the given device handle. Several
// handles over the same physical CPU act as independent devices for
// data-parallel training.
func NewFor(device tensor.Device) *Backend {
	return internalcpu.NewFor(device)
}
