package nn

import (
	"fmt"

	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Parameter is a named learnable tensor with a gradient-accumulation
// buffer. The buffer is nil until the first backward pass reaches the
// parameter; a nil buffer reads as zero gradient.
type Parameter[B tensor.Backend] struct {
	name  string
	value tensor.Tensor[float32, B]
	grad  *tensor.RawTensor
}

func NewParameter[B tensor.Backend](name string, value tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, value: value}
}

func (p *Parameter[B]) Name() string { return p.name }

// Value returns the parameter tensor. Its raw buffer is the identity the
// autodiff gradient map is keyed by.
func (p *Parameter[B]) Value() tensor.Tensor[float32, B] { return p.value }

// Raw returns the parameter's raw tensor.
func (p *Parameter[B]) Raw() *tensor.RawTensor { return p.value.Raw() }

// Grad returns the accumulated gradient, nil if none has arrived.
func (p *Parameter[B]) Grad() *tensor.RawTensor { return p.grad }

// AccumulateGrad adds g into the gradient buffer, allocating it on first
// use. The addition runs on the host so it works for any backend.
func (p *Parameter[B]) AccumulateGrad(g *tensor.RawTensor) {
	if !g.Shape().Equal(p.value.Shape()) {
		panic(fmt.Sprintf("nn: gradient shape %v for parameter %q of shape %v", g.Shape(), p.name, p.value.Shape()))
	}
	if p.grad == nil {
		p.grad = g.Clone()
		return
	}
	dst, src := p.grad.Float32(), g.Float32()
	for i := range dst {
		dst[i] += src[i]
	}
}

// SetGrad replaces the gradient buffer. The trainer uses this to install
// the combined cross-replica gradient before the optimizer step.
func (p *Parameter[B]) SetGrad(g *tensor.RawTensor) { p.grad = g }

// ZeroGrad clears the gradient buffer.
func (p *Parameter[B]) ZeroGrad() { p.grad = nil }

// CopyValueFrom overwrites this parameter's value bytes with src's.
// Used to keep replicas of one logical parameter synchronized.
func (p *Parameter[B]) CopyValueFrom(src *tensor.RawTensor) error {
	if err := p.value.Raw().CopyFrom(src); err != nil {
		return fmt.Errorf("nn: parameter %q: %w", p.name, err)
	}
	return nil
}
