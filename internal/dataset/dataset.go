// Package dataset builds and batches (low-res, high-res) precipitation
// sample pairs. Low-res fields are derived once from the high-res fields by
// spatial block averaging and are immutable afterwards.
package dataset

import (
	"fmt"
	"math/rand"

	"rainscale/internal/tensor"
)

// Pair is one aligned sample, each tensor carrying a leading batch dimension
// of one so batches assemble by concatenation.
type Pair struct {
	LowRes  *tensor.Tensor
	HighRes *tensor.Tensor
}

// Batch is a stack of pairs along the batch axis.
type Batch struct {
	LowRes  *tensor.Tensor
	HighRes *tensor.Tensor
}

type Dataset struct {
	pairs []Pair
}

// FromHighRes derives the sample pairs from high-res fields via block
// averaging with the given factor.
func FromHighRes(fields []*tensor.Tensor, factor int) (*Dataset, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("dataset: no fields")
	}
	pairs := make([]Pair, 0, len(fields))
	for i, hr := range fields {
		lr, err := tensor.BlockAverage(hr, factor)
		if err != nil {
			return nil, fmt.Errorf("dataset: field %d: %w", i, err)
		}
		pairs = append(pairs, Pair{LowRes: lr, HighRes: hr})
	}
	return &Dataset{pairs: pairs}, nil
}

func (d *Dataset) Len() int {
	return len(d.pairs)
}

func (d *Dataset) Pair(i int) Pair {
	return d.pairs[i]
}

// Batches returns the whole dataset as shuffled batches of at most batchSize
// pairs. The final batch may be smaller but never empty.
func (d *Dataset) Batches(rng *rand.Rand, batchSize int) ([]Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: batch size must be positive, got %d", batchSize)
	}

	order := rng.Perm(len(d.pairs))
	var batches []Batch
	for start := 0; start < len(order); start += batchSize {
		end := start + batchSize
		if end > len(order) {
			end = len(order)
		}
		lows := make([]*tensor.Tensor, 0, end-start)
		highs := make([]*tensor.Tensor, 0, end-start)
		for _, idx := range order[start:end] {
			lows = append(lows, d.pairs[idx].LowRes)
			highs = append(highs, d.pairs[idx].HighRes)
		}
		lr, err := tensor.ConcatBatch(lows...)
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		hr, err := tensor.ConcatBatch(highs...)
		if err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		batches = append(batches, Batch{LowRes: lr, HighRes: hr})
	}
	return batches, nil
}
