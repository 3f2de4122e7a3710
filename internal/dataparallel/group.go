package dataparallel

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/autodiff"
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Replica is one device's copy of the model: a compute backend wrapped
// in its own autodiff tape, the model built on it, and its parameters.
// Replicas never share tensor memory; the group keeps their parameter
// values synchronized by copying bytes.
type Replica[B tensor.Backend] struct {
	backend *autodiff.Backend[B]
	model   nn.Module[*autodiff.Backend[B]]
	params  []*nn.Parameter[*autodiff.Backend[B]]
}

func (r *Replica[B]) Backend() *autodiff.Backend[B] { return r.backend }

func (r *Replica[B]) Model() nn.Module[*autodiff.Backend[B]] { return r.model }

func (r *Replica[B]) Parameters() []*nn.Parameter[*autodiff.Backend[B]] { return r.params }

func (r *Replica[B]) Device() tensor.Device { return r.backend.Device() }

// trainShard runs forward/backward for one batch shard and accumulates
// gradients into this replica's parameter buffers. Returns the summed
// per-example loss.
func (r *Replica[B]) trainShard(images, labels *tensor.RawTensor) float32 {
	tape := r.backend.Tape()
	tape.Clear()
	tape.StartRecording()
	defer tape.Clear()

	x := tensor.New[float32](images, r.backend)
	y := tensor.New[int32](labels, r.backend)
	logits := r.model.Forward(x)
	loss := nn.CrossEntropy(logits, y, true)

	grads := r.backend.Backward(loss.Raw())

	for _, p := range r.params {
		if g, ok := grads[p.Raw()]; ok {
			p.AccumulateGrad(g)
		}
	}
	return loss.Data()[0]
}

// BuildFunc constructs one model replica on the given backend. It is
// called once per device; parameter order must not depend on the device.
type BuildFunc[B tensor.Backend] func(backend *autodiff.Backend[B]) nn.Module[*autodiff.Backend[B]]

// Group owns the ordered replica set for data-parallel training.
// Replica 0 is the reference: initialization and optimizer updates
// happen there and are broadcast to the others.
type Group[B tensor.Backend] struct {
	replicas    []*Replica[B]
	build       BuildFunc[B]
	initialized bool
}

// NewGroup builds one replica per backend. Every backend gets a fresh
// autodiff tape so shard backward passes are independent.
func NewGroup[B tensor.Backend](backends []B, build BuildFunc[B]) (*Group[B], error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("dataparallel: group needs at least one device")
	}
	g := &Group[B]{build: build}
	for _, be := range backends {
		ab := autodiff.New(be)
		model := build(ab)
		g.replicas = append(g.replicas, &Replica[B]{
			backend: ab,
			model:   model,
			params:  model.Parameters(),
		})
	}
	want := len(g.replicas[0].params)
	for i, r := range g.replicas[1:] {
		if len(r.params) != want {
			return nil, fmt.Errorf("dataparallel: replica %d has %d parameters, reference has %d", i+1, len(r.params), want)
		}
	}
	return g, nil
}

func (g *Group[B]) Size() int               { return len(g.replicas) }
func (g *Group[B]) Replicas() []*Replica[B] { return g.replicas }
func (g *Group[B]) Reference() *Replica[B]  { return g.replicas[0] }

// Devices returns the ordered device handles of the group.
func (g *Group[B]) Devices() []tensor.Device {
	devices := make([]tensor.Device, len(g.replicas))
	for i, r := range g.replicas {
		devices[i] = r.Device()
	}
	return devices
}

// Initialize synchronizes every replica's parameters to the reference
// replica's values. The first call always runs; later calls are no-ops
// unless force is set, which discards whatever training state the
// replicas hold: the reference is re-drawn from the build function
// before broadcasting.
func (g *Group[B]) Initialize(force bool) error {
	if g.initialized && !force {
		return nil
	}
	if force {
		if err := g.reinitReference(); err != nil {
			return err
		}
	}
	if err := g.Broadcast(); err != nil {
		return err
	}
	g.initialized = true
	return nil
}

// reinitReference rebuilds a fresh model on the reference backend and
// copies its parameter values into the existing reference parameters,
// so optimizers bound to them stay valid.
func (g *Group[B]) reinitReference() error {
	ref := g.Reference()
	fresh := g.build(ref.backend).Parameters()
	if len(fresh) != len(ref.params) {
		return fmt.Errorf("dataparallel: rebuild produced %d parameters, replica has %d", len(fresh), len(ref.params))
	}
	for i, p := range ref.params {
		if err := p.CopyValueFrom(fresh[i].Raw()); err != nil {
			return err
		}
	}
	return nil
}

// Broadcast copies the reference replica's parameter bytes to all other
// replicas, leaving every replica of a parameter byte-identical.
func (g *Group[B]) Broadcast() error {
	ref := g.Reference()
	for i, src := range ref.params {
		for _, r := range g.replicas[1:] {
			if err := r.params[i].CopyValueFrom(src.Raw()); err != nil {
				return err
			}
		}
	}
	return nil
}

// ZeroGrad clears gradient buffers on every replica.
func (g *Group[B]) ZeroGrad() {
	for _, r := range g.replicas {
		for _, p := range r.params {
			p.ZeroGrad()
		}
	}
}
