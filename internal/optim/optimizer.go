// Package optim applies gradient updates to parameter sets. Gradients are
// accumulated by the layers; an Optimizer consumes them for one step and the
// caller zeroes them afterwards.
package optim

import "rainscale/internal/nn"

type Optimizer interface {
	Name() string
	Step(params []*nn.Param) error
}
