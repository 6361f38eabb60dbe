package nn

import "fmt"

// Param is one learnable parameter block. Backward passes accumulate into
// Grad; optimizers consume Grad and the caller zeroes it between steps.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64
}

func newParam(name string, n int) *Param {
	return &Param{Name: name, Value: make([]float64, n), Grad: make([]float64, n)}
}

// ZeroGrads clears the accumulated gradient of every parameter.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Snapshot copies current parameter values keyed by name.
func Snapshot(params []*Param) map[string][]float64 {
	out := make(map[string][]float64, len(params))
	for _, p := range params {
		out[p.Name] = append([]float64(nil), p.Value...)
	}
	return out
}

// Restore writes a snapshot back into the parameter set. Every parameter must
// be present in the snapshot with a matching length.
func Restore(params []*Param, snapshot map[string][]float64) error {
	for _, p := range params {
		values, ok := snapshot[p.Name]
		if !ok {
			return fmt.Errorf("nn: snapshot missing parameter %s", p.Name)
		}
		if len(values) != len(p.Value) {
			return fmt.Errorf("nn: snapshot parameter %s has %d values, want %d", p.Name, len(values), len(p.Value))
		}
		copy(p.Value, values)
	}
	return nil
}
