// Package webgpu implements a GPU compute backend over WebGPU, using the
// zero-CGO go-webgpu bindings. Element-wise arithmetic, ReLU and matrix
// multiplication dispatch WGSL compute shaders; the remaining kernels
// fall back to a host CPU backend bound to the same logical device, so
// every result carries this backend's device identity either way.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/lockstep-ml/lockstep/internal/backend/cpu"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Backend executes tensor operations on one WebGPU device. Each instance
// owns its own wgpu device and queue, so several instances form
// independent device handles for data-parallel training.
type Backend struct {
	dev tensor.Device

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	host *cpu.Backend
}

// New creates a backend bound to gpu:ordinal.
// Returns an error if WebGPU is not available or initialization fails.
func New(ordinal int) (backend *Backend, err error) {
	// The bindings panic when the native wgpu library is missing.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	dev := tensor.Device{Kind: tensor.GPU, Ordinal: ordinal}
	return &Backend{
		dev:       dev,
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
		host:      cpu.NewFor(dev),
	}, nil
}

// IsAvailable reports whether a WebGPU device can be initialized.
func IsAvailable() bool {
	b, err := New(0)
	if err != nil {
		return false
	}
	b.Release()
	return true
}

func (b *Backend) Name() string          { return "webgpu" }
func (b *Backend) Device() tensor.Device { return b.dev }

// Release frees all GPU resources. The backend must not be used after.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines = nil
	b.shaders = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
