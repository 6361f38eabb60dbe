package optim

import (
	"math"
	"testing"

	"rainscale/internal/nn"
)

func singleParam(value, grad float64) []*nn.Param {
	return []*nn.Param{{Name: "p", Value: []float64{value}, Grad: []float64{grad}}}
}

func TestSGDStep(t *testing.T) {
	params := singleParam(1.0, 0.5)
	opt := NewSGD(0.1)
	if err := opt.Step(params); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if math.Abs(params[0].Value[0]-0.95) > 1e-12 {
		t.Fatalf("unexpected sgd update: %g", params[0].Value[0])
	}
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	params := singleParam(0, 0.3)
	opt := NewAdam(0.01)
	if err := opt.Step(params); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	// After bias correction the first update is ~lr * sign(grad).
	if math.Abs(params[0].Value[0]+0.01) > 1e-6 {
		t.Fatalf("unexpected first adam update: %g", params[0].Value[0])
	}
}

func TestAdamDescendsQuadratic(t *testing.T) {
	// Minimize (x-3)^2 with gradient 2(x-3).
	params := singleParam(0, 0)
	opt := NewAdam(0.1)
	for i := 0; i < 500; i++ {
		params[0].Grad[0] = 2 * (params[0].Value[0] - 3)
		if err := opt.Step(params); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	if math.Abs(params[0].Value[0]-3) > 0.05 {
		t.Fatalf("adam failed to converge: %g", params[0].Value[0])
	}
}

func TestAdamRejectsResizedParam(t *testing.T) {
	params := singleParam(0, 1)
	opt := NewAdam(0.01)
	if err := opt.Step(params); err != nil {
		t.Fatalf("step failed: %v", err)
	}
	params[0].Value = []float64{1, 2}
	params[0].Grad = []float64{1, 1}
	if err := opt.Step(params); err == nil {
		t.Fatal("expected size change error")
	}
}

func TestZeroGradDoesNotMoveAdam(t *testing.T) {
	params := singleParam(1.5, 0)
	opt := NewAdam(0.1)
	for i := 0; i < 3; i++ {
		if err := opt.Step(params); err != nil {
			t.Fatalf("step failed: %v", err)
		}
	}
	if params[0].Value[0] != 1.5 {
		t.Fatalf("zero gradient moved the parameter: %g", params[0].Value[0])
	}
}
