package biquad

// FiltFilt applies the cascade described by coeffs forward and then backward
// over x and returns a new slice of the same length. The result has zero
// phase shift and the squared magnitude response of the cascade.
//
// The block is extended at both ends by an odd reflection of
// 3*(2*len(coeffs)+1) samples (fewer for short blocks), and each pass starts
// from the steady state of its first sample, so edges carry no start-up
// transient.
func FiltFilt(coeffs []Coefficients, x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}
	if len(coeffs) == 0 {
		out := make([]float64, n)
		copy(out, x)
		return out
	}

	pad := min(3*(2*len(coeffs)+1), n-1)
	ext := oddExtend(x, pad)

	chain := NewChain(coeffs)
	chain.Settle(ext[0])
	chain.ProcessBlock(ext)

	reverse(ext)
	chain.Reset()
	chain.Settle(ext[0])
	chain.ProcessBlock(ext)
	reverse(ext)

	out := make([]float64, n)
	copy(out, ext[pad:pad+n])
	return out
}

// oddExtend returns x with pad samples of odd (point-symmetric) reflection
// prepended and appended.
func oddExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	first, last := x[0], x[n-1]
	for i := range pad {
		ext[i] = 2*first - x[pad-i]
		ext[pad+n+i] = 2*last - x[n-2-i]
	}
	copy(ext[pad:], x)
	return ext
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
