// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU compute backend.
package webgpu

import (
	internalwebgpu "github.com/lockstep-ml/lockstep/internal/backend/webgpu"
	"github.com/lockstep-ml/lockstep/tensor"
)

// Backend executes tensor operations on one WebGPU device. Element-wise
// arithmetic, ReLU and matrix multiplication run as WGSL compute
// shaders; remaining kernels fall back to a host CPU path bound to the
// same logical device.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a backend bound to gpu:ordinal. It returns an error when
// WebGPU is unavailable on this machine.
func New(ordinal int) (*Backend, error) {
	return internalwebgpu.New(ordinal)
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
