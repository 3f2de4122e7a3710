// Package cpu implements the pure-Go compute backend. Kernels operate on
// float32 buffers, allocate fresh outputs, and panic on shape misuse.
package cpu

import (
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// minChunk is the per-goroutine work floor for parallel kernel loops.
const minChunk = 1024

// Backend executes tensor operations on the host CPU. Each instance is
// bound to one logical device, so several instances can stand in for the
// ordered device handles of a data-parallel group.
type Backend struct {
	device tensor.Device
}

// New creates a backend bound to cpu:0.
func New() *Backend {
	return &Backend{device: tensor.Device{Kind: tensor.CPU}}
}

// NewFor creates a backend bound to an arbitrary device. Used both for
// extra cpu:N handles and as the host fallback of GPU backends, where
// results must carry the GPU device identity.
func NewFor(device tensor.Device) *Backend {
	return &Backend{device: device}
}

func (b *Backend) Name() string          { return "cpu" }
func (b *Backend) Device() tensor.Device { return b.device }

// alloc creates a zeroed output tensor on this backend's device.
func (b *Backend) alloc(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	return tensor.MustNewRaw(shape, dtype, b.device)
}
