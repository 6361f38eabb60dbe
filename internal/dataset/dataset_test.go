package dataset

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainscale/internal/tensor"
)

func TestFromHighResDerivesBlockMeans(t *testing.T) {
	hr, err := tensor.FromSlice([]float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, 1, 4, 4, 1)
	require.NoError(t, err)

	ds, err := FromHighRes([]*tensor.Tensor{hr}, 2)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	pair := ds.Pair(0)
	assert.Equal(t, []int{1, 2, 2, 1}, pair.LowRes.Shape())
	assert.InDeltaSlice(t, []float64{1, 2, 3, 4}, pair.LowRes.Data(), 1e-12)
	assert.Same(t, hr, pair.HighRes)
}

func TestFromHighResRejectsEmptyAndBadFactor(t *testing.T) {
	_, err := FromHighRes(nil, 2)
	assert.Error(t, err)

	hr := tensor.New(1, 4, 4, 1)
	_, err = FromHighRes([]*tensor.Tensor{hr}, 3)
	assert.Error(t, err)
}

func TestBatchesCoverDatasetWithPartialTail(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fields, err := GenerateFields(rng, 5, DefaultSyntheticConfig(8))
	require.NoError(t, err)
	ds, err := FromHighRes(fields, 2)
	require.NoError(t, err)

	batches, err := ds.Batches(rng, 2)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[0].LowRes.Dim(0))
	assert.Equal(t, 2, batches[1].HighRes.Dim(0))
	assert.Equal(t, 1, batches[2].LowRes.Dim(0))

	total := 0
	for _, b := range batches {
		require.Equal(t, b.LowRes.Dim(0), b.HighRes.Dim(0))
		total += b.LowRes.Dim(0)
	}
	assert.Equal(t, ds.Len(), total)
}

func TestBatchesRejectNonPositiveSize(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	fields, err := GenerateFields(rng, 2, DefaultSyntheticConfig(8))
	require.NoError(t, err)
	ds, err := FromHighRes(fields, 2)
	require.NoError(t, err)

	_, err = ds.Batches(rng, 0)
	assert.Error(t, err)
}

func TestLog1pExpm1RoundTrip(t *testing.T) {
	raw, err := tensor.FromSlice([]float64{0, 1, 10, 35.5}, 1, 2, 2, 1)
	require.NoError(t, err)

	back := Expm1(Log1p(raw))
	for i, v := range raw.Data() {
		assert.InDelta(t, v, back.Data()[i], 1e-9)
	}
}

func TestExpm1ClampsNegativeRain(t *testing.T) {
	neg, err := tensor.FromSlice([]float64{-0.3, 0.2}, 1, 1, 1, 2)
	require.NoError(t, err)
	out := Expm1(neg)
	assert.Equal(t, 0.0, out.Data()[0])
	assert.Greater(t, out.Data()[1], 0.0)
}

func TestGenerateFieldsProperties(t *testing.T) {
	cfg := DefaultSyntheticConfig(32)
	fields, err := GenerateFields(rand.New(rand.NewSource(9)), 3, cfg)
	require.NoError(t, err)
	require.Len(t, fields, 3)

	for _, f := range fields {
		assert.Equal(t, []int{1, 32, 32, 1}, f.Shape())
		peak := 0.0
		for _, v := range f.Data() {
			require.False(t, math.IsNaN(v))
			require.GreaterOrEqual(t, v, 0.0)
			peak = math.Max(peak, v)
		}
		assert.Greater(t, peak, 0.0, "field must contain rain")
		// Already log-transformed, so the peak stays below log1p(2*MaxIntensity*cells).
		assert.Less(t, peak, math.Log1p(cfg.MaxIntensity*float64(cfg.MaxCells)))
	}

	again, err := GenerateFields(rand.New(rand.NewSource(9)), 3, cfg)
	require.NoError(t, err)
	assert.Equal(t, fields[0].Data(), again[0].Data(), "same seed must reproduce fields")

	_, err = GenerateFields(rand.New(rand.NewSource(9)), 0, cfg)
	assert.Error(t, err)
}
