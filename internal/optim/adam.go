package optim

import (
	"fmt"
	"math"

	"rainscale/internal/nn"
)

// Adam keeps per-parameter first and second moment estimates keyed by
// parameter name. Defaults follow the usual GAN recipe (beta1 lowered to 0.5).
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step    int
	moment1 map[string][]float64
	moment2 map[string][]float64
}

func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.5,
		Beta2:        0.999,
		Epsilon:      1e-8,
		moment1:      make(map[string][]float64),
		moment2:      make(map[string][]float64),
	}
}

func (a *Adam) Name() string {
	return "adam"
}

func (a *Adam) Step(params []*nn.Param) error {
	a.step++
	correction1 := 1 - math.Pow(a.Beta1, float64(a.step))
	correction2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for _, p := range params {
		m := a.moments(a.moment1, p)
		v := a.moments(a.moment2, p)
		if len(m) != len(p.Value) || len(v) != len(p.Value) {
			return fmt.Errorf("adam: parameter %s changed size", p.Name)
		}
		for i, g := range p.Grad {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			mHat := m[i] / correction1
			vHat := v[i] / correction2
			p.Value[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}
	return nil
}

func (a *Adam) moments(store map[string][]float64, p *nn.Param) []float64 {
	s, ok := store[p.Name]
	if !ok {
		s = make([]float64, len(p.Value))
		store[p.Name] = s
	}
	return s
}
