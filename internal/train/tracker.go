package train

// MeanTracker keeps a running arithmetic mean over every value it has seen.
// It never windows or decays; reset happens only at construction.
type MeanTracker struct {
	count uint64
	sum   float64
}

func (m *MeanTracker) Update(value float64) {
	m.count++
	m.sum += value
}

// Mean reports the running mean, or zero before the first update.
func (m *MeanTracker) Mean() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

func (m *MeanTracker) Count() uint64 {
	return m.count
}
