package optim

import "rainscale/internal/nn"

// SGD is plain gradient descent, useful as a deterministic baseline in tests.
type SGD struct {
	LearningRate float64
}

func NewSGD(learningRate float64) *SGD {
	return &SGD{LearningRate: learningRate}
}

func (s *SGD) Name() string {
	return "sgd"
}

func (s *SGD) Step(params []*nn.Param) error {
	for _, p := range params {
		for i, g := range p.Grad {
			p.Value[i] -= s.LearningRate * g
		}
	}
	return nil
}
