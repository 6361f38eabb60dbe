package tensor

import "math/rand"

// Normal fills a freshly allocated tensor with standard-normal draws from rng.
func Normal(rng *rand.Rand, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = rng.NormFloat64()
	}
	return t
}
