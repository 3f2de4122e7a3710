package optim

import (
	"math"

	"github.com/lockstep-ml/lockstep/internal/nn"
	"github.com/lockstep-ml/lockstep/internal/tensor"
)

// Adam implements the Adam optimizer with bias-corrected first and
// second moment estimates.
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32

	step int
	m    [][]float32
	v    [][]float32
}

func NewAdam[B tensor.Backend](params []*nn.Parameter[B], lr float32) *Adam[B] {
	return &Adam[B]{
		params: params,
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		m:      make([][]float32, len(params)),
		v:      make([][]float32, len(params)),
	}
}

func (a *Adam[B]) Step() {
	a.step++
	c1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	c2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))

	for i, p := range a.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		w, g := p.Raw().Float32(), grad.Float32()
		if a.m[i] == nil {
			a.m[i] = make([]float32, len(g))
			a.v[i] = make([]float32, len(g))
		}
		m, v := a.m[i], a.v[i]
		for j := range w {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]
			mHat := m[j] / c1
			vHat := v[j] / c2
			w[j] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

func (a *Adam[B]) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

func (a *Adam[B]) LR() float32      { return a.lr }
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

func (a *Adam[B]) Parameters() []*nn.Parameter[B] { return a.params }
