package tensor

import "fmt"

// ConcatBatch joins tensors along axis 0. All inputs must agree on the
// trailing dimensions.
func ConcatBatch(parts ...*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("tensor: concat of zero tensors")
	}
	first := parts[0]
	batch := 0
	for _, p := range parts {
		if p.Rank() != first.Rank() {
			return nil, fmt.Errorf("tensor: concat rank mismatch %d vs %d", p.Rank(), first.Rank())
		}
		for i := 1; i < first.Rank(); i++ {
			if p.shape[i] != first.shape[i] {
				return nil, fmt.Errorf("tensor: concat trailing shape mismatch %v vs %v", p.shape, first.shape)
			}
		}
		batch += p.shape[0]
	}

	shape := first.Shape()
	shape[0] = batch
	out := New(shape...)
	off := 0
	for _, p := range parts {
		copy(out.data[off:], p.data)
		off += len(p.data)
	}
	return out, nil
}

// ConcatChannels joins NHWC tensors along the channel axis.
func ConcatChannels(a, b *Tensor) (*Tensor, error) {
	if a.Rank() != 4 || b.Rank() != 4 {
		return nil, fmt.Errorf("tensor: channel concat expects rank 4, got %d and %d", a.Rank(), b.Rank())
	}
	if a.shape[0] != b.shape[0] || a.shape[1] != b.shape[1] || a.shape[2] != b.shape[2] {
		return nil, fmt.Errorf("tensor: channel concat shape mismatch %v vs %v", a.shape, b.shape)
	}

	ca, cb := a.shape[3], b.shape[3]
	out := New(a.shape[0], a.shape[1], a.shape[2], ca+cb)
	pixels := a.shape[0] * a.shape[1] * a.shape[2]
	for p := 0; p < pixels; p++ {
		copy(out.data[p*(ca+cb):], a.data[p*ca:(p+1)*ca])
		copy(out.data[p*(ca+cb)+ca:], b.data[p*cb:(p+1)*cb])
	}
	return out, nil
}

// SplitChannels undoes ConcatChannels, returning the leading ca channels and
// the remaining channels as separate tensors.
func SplitChannels(t *Tensor, ca int) (*Tensor, *Tensor, error) {
	if t.Rank() != 4 {
		return nil, nil, fmt.Errorf("tensor: channel split expects rank 4, got %d", t.Rank())
	}
	c := t.shape[3]
	if ca <= 0 || ca >= c {
		return nil, nil, fmt.Errorf("tensor: cannot split %d channels at %d", c, ca)
	}

	cb := c - ca
	a := New(t.shape[0], t.shape[1], t.shape[2], ca)
	b := New(t.shape[0], t.shape[1], t.shape[2], cb)
	pixels := t.shape[0] * t.shape[1] * t.shape[2]
	for p := 0; p < pixels; p++ {
		copy(a.data[p*ca:], t.data[p*c:p*c+ca])
		copy(b.data[p*cb:], t.data[p*c+ca:(p+1)*c])
	}
	return a, b, nil
}

// SliceBatch returns a copy of rows [from, to) along axis 0.
func SliceBatch(t *Tensor, from, to int) (*Tensor, error) {
	if from < 0 || to > t.shape[0] || from >= to {
		return nil, fmt.Errorf("tensor: batch slice [%d,%d) out of range for %d", from, to, t.shape[0])
	}
	stride := len(t.data) / t.shape[0]
	shape := t.Shape()
	shape[0] = to - from
	out := New(shape...)
	copy(out.data, t.data[from*stride:to*stride])
	return out, nil
}

// BlockAverage reduces each factor×factor spatial block of an NHWC tensor to
// its mean, per channel.
func BlockAverage(t *Tensor, factor int) (*Tensor, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("tensor: block average expects rank 4, got %d", t.Rank())
	}
	n, h, w, c := t.shape[0], t.shape[1], t.shape[2], t.shape[3]
	if factor <= 0 || h%factor != 0 || w%factor != 0 {
		return nil, fmt.Errorf("tensor: block factor %d does not divide %dx%d", factor, h, w)
	}

	oh, ow := h/factor, w/factor
	out := New(n, oh, ow, c)
	inv := 1.0 / float64(factor*factor)
	for b := 0; b < n; b++ {
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				for ch := 0; ch < c; ch++ {
					sum := 0.0
					for dy := 0; dy < factor; dy++ {
						for dx := 0; dx < factor; dx++ {
							sum += t.data[((b*h+y*factor+dy)*w+x*factor+dx)*c+ch]
						}
					}
					out.data[((b*oh+y)*ow+x)*c+ch] = sum * inv
				}
			}
		}
	}
	return out, nil
}
