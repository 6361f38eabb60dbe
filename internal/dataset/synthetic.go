package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"rainscale/internal/tensor"
)

// SyntheticConfig shapes the generated precipitation fields. Each field is a
// sum of Gaussian rain cells with random center, spread, and peak intensity.
type SyntheticConfig struct {
	Size         int // grid edge length
	MinCells     int // rain cells per field, inclusive bounds
	MaxCells     int
	MaxIntensity float64 // peak rain rate in mm/h
}

func DefaultSyntheticConfig(size int) SyntheticConfig {
	return SyntheticConfig{Size: size, MinCells: 2, MaxCells: 6, MaxIntensity: 40}
}

// GenerateFields draws count synthetic high-res rain fields, each [1,S,S,1]
// with the log(1+x) transform already applied.
func GenerateFields(rng *rand.Rand, count int, cfg SyntheticConfig) ([]*tensor.Tensor, error) {
	if count <= 0 {
		return nil, fmt.Errorf("dataset: field count must be positive, got %d", count)
	}
	if cfg.Size <= 0 || cfg.MinCells <= 0 || cfg.MaxCells < cfg.MinCells {
		return nil, fmt.Errorf("dataset: bad synthetic config %+v", cfg)
	}

	fields := make([]*tensor.Tensor, 0, count)
	for i := 0; i < count; i++ {
		fields = append(fields, Log1p(rainField(rng, cfg)))
	}
	return fields, nil
}

func rainField(rng *rand.Rand, cfg SyntheticConfig) *tensor.Tensor {
	s := cfg.Size
	field := tensor.New(1, s, s, 1)
	data := field.Data()

	cells := cfg.MinCells + rng.Intn(cfg.MaxCells-cfg.MinCells+1)
	for c := 0; c < cells; c++ {
		cx := rng.Float64() * float64(s)
		cy := rng.Float64() * float64(s)
		sigma := 1.5 + rng.Float64()*3.5
		amp := cfg.MaxIntensity * (0.1 + 0.9*rng.Float64())
		inv := 1 / (2 * sigma * sigma)
		for y := 0; y < s; y++ {
			for x := 0; x < s; x++ {
				dx := float64(x) - cx
				dy := float64(y) - cy
				data[y*s+x] += amp * math.Exp(-(dx*dx+dy*dy)*inv)
			}
		}
	}
	return field
}
