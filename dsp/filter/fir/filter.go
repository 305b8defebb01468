package fir

// Filter is a streaming FIR filter. It keeps the last len(taps) inputs in a
// ring, newest first when read from head backwards.
type Filter struct {
	taps []float64
	hist []float64
	head int
}

// New returns a filter running taps. The slice is copied.
func New(taps []float64) *Filter {
	return &Filter{
		taps: append([]float64(nil), taps...),
		hist: make([]float64, len(taps)),
	}
}

// ProcessSample pushes x and returns the next output sample.
func (f *Filter) ProcessSample(x float64) float64 {
	if len(f.taps) == 0 {
		return 0
	}
	f.hist[f.head] = x

	// hist[head] is x[n], hist[head-1] is x[n-1] and so on around the ring.
	var acc float64
	idx := f.head
	for _, h := range f.taps {
		acc += h * f.hist[idx]
		if idx == 0 {
			idx = len(f.hist)
		}
		idx--
	}

	f.head = (f.head + 1) % len(f.hist)
	return acc
}

// Reset forgets all past input.
func (f *Filter) Reset() {
	clear(f.hist)
	f.head = 0
}

// GroupDelay is the delay in samples of a symmetric tap set, (N-1)/2.
func (f *Filter) GroupDelay() int {
	return max(len(f.taps)-1, 0) / 2
}
