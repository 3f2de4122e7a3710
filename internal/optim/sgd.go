package optim

import (
	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum:
//
//	v = momentum*v + grad
//	param -= lr * v
//
// With zero momentum the update reduces to param -= lr * grad, the
// update rule the replica-synchronization guarantee is stated for.
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	momentum   float32
	velocities [][]float32
}

func NewSGD[B tensor.Backend](params []*nn.Parameter[B], lr, momentum float32) *SGD[B] {
	return &SGD[B]{
		params:     params,
		lr:         lr,
		momentum:   momentum,
		velocities: make([][]float32, len(params)),
	}
}

func (s *SGD[B]) Step() {
	for i, p := range s.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		w, g := p.Raw().Float32(), grad.Float32()
		if s.momentum == 0 {
			for j := range w {
				w[j] -= s.lr * g[j]
			}
			continue
		}
		if s.velocities[i] == nil {
			s.velocities[i] = make([]float32, len(g))
		}
		v := s.velocities[i]
		for j := range w {
			v[j] = s.momentum*v[j] + g[j]
			w[j] -= s.lr * v[j]
		}
	}
}

func (s *SGD[B]) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

func (s *SGD[B]) LR() float32      { return s.lr }
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }

func (s *SGD[B]) Parameters() []*nn.Parameter[B] { return s.params }
