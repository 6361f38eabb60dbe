package tensor

import "github.com/klauspost/cpuid/v2"

// Dot returns the inner product of a and b. Axpy computes y += alpha*x.
// Both are rebound at init to wide-stride variants when the CPU advertises
// AVX2, so the compiler can keep the unrolled accumulators in registers.
var (
	Dot  = dotGeneric
	Axpy = axpyGeneric
)

func init() {
	if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
		Dot = dotUnrolled
		Axpy = axpyUnrolled
	}
}

func dotGeneric(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func dotUnrolled(a, b []float64) float64 {
	var s0, s1, s2, s3 float64
	n := len(a) &^ 3
	for i := 0; i < n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for i := n; i < len(a); i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func axpyGeneric(alpha float64, x, y []float64) {
	for i := range x {
		y[i] += alpha * x[i]
	}
}

func axpyUnrolled(alpha float64, x, y []float64) {
	n := len(x) &^ 3
	for i := 0; i < n; i += 4 {
		y[i] += alpha * x[i]
		y[i+1] += alpha * x[i+1]
		y[i+2] += alpha * x[i+2]
		y[i+3] += alpha * x[i+3]
	}
	for i := n; i < len(x); i++ {
		y[i] += alpha * x[i]
	}
}
