// Copyright 2025 The Lockstep Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in Lockstep.
//
// The package defines the core types for type-safe tensor computation:
//   - Tensor[T, B]: high-level generic tensor bound to a backend
//   - RawTensor: low-level contiguous buffer with shape and device
//   - Backend: interface for device-specific compute implementations
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)  // Element-wise addition
package tensor

import (
	"math/rand"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, int32, uint8.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Int32   DataType = tensor.Int32
	Uint8   DataType = tensor.Uint8
)

// DeviceKind classifies a device as CPU or GPU.
type DeviceKind = tensor.DeviceKind

// Device kind constants.
const (
	CPU DeviceKind = tensor.CPU
	GPU DeviceKind = tensor.GPU
)

// Device identifies one logical compute device, such as cpu:0 or gpu:1.
type Device = tensor.Device

// ParseDevice parses a device string like "cpu", "cpu:1" or "gpu:0".
func ParseDevice(s string) (Device, error) {
	return tensor.ParseDevice(s)
}

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Backend is the interface device backends implement.
type Backend = tensor.Backend

// RawTensor is the untyped tensor representation backends operate on.
type RawTensor = tensor.RawTensor

// NewRaw allocates a zeroed RawTensor with the given shape, dtype and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Tensor is a type-safe tensor bound to a backend.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps a RawTensor into a typed Tensor. It panics if the raw dtype
// does not match T.
func New[T DType, B Backend](raw *RawTensor, backend B) Tensor[T, B] {
	return tensor.New[T](raw, backend)
}

// Creation functions

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, backend B) Tensor[T, B] {
	return tensor.Zeros[T](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, backend B) Tensor[T, B] {
	return tensor.Ones[T](shape, backend)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, backend B) Tensor[T, B] {
	return tensor.Full(shape, value, backend)
}

// FromSlice creates a tensor from a flat slice in row-major order.
func FromSlice[T DType, B Backend](values []T, shape Shape, backend B) Tensor[T, B] {
	return tensor.FromSlice(values, shape, backend)
}

// Randn creates a float32 tensor with standard normal samples drawn from rng.
func Randn[B Backend](shape Shape, rng *rand.Rand, backend B) Tensor[float32, B] {
	return tensor.Randn(shape, rng, backend)
}

// Uniform creates a float32 tensor with samples drawn uniformly from
// [low, high) using rng.
func Uniform[B Backend](shape Shape, low, high float32, rng *rand.Rand, backend B) Tensor[float32, B] {
	return tensor.Uniform(shape, low, high, rng, backend)
}

// Argmax returns the index of the maximum value along dim as an int32 tensor.
func Argmax[T DType, B Backend](t Tensor[T, B], dim int) Tensor[int32, B] {
	return tensor.Argmax(t, dim)
}
