package rainscale

import (
	"math/rand"

	"rainscale/internal/gan"
	"rainscale/internal/tensor"
)

// tensorFromGrid packs a square row-major grid into a [1,S,S,1] tensor.
// Returns nil when any row has the wrong length.
func tensorFromGrid(grid [][]float64) *tensor.Tensor {
	s := len(grid)
	t := tensor.New(1, s, s, 1)
	data := t.Data()
	for y, row := range grid {
		if len(row) != s {
			return nil
		}
		copy(data[y*s:(y+1)*s], row)
	}
	return t
}

// gridFromTensor unpacks a [1,S,S,1] tensor into rows.
func gridFromTensor(t *tensor.Tensor) [][]float64 {
	s := t.Dim(1)
	data := t.Data()
	grid := make([][]float64, s)
	for y := 0; y < s; y++ {
		grid[y] = append([]float64(nil), data[y*s:(y+1)*s]...)
	}
	return grid
}

func drawInferenceNoise(rng *rand.Rand) *tensor.Tensor {
	return tensor.Normal(rng, 1, gan.LowResSize, gan.LowResSize, gan.NoiseChannels)
}
