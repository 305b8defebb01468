package core

import "math"

// Clamp limits v to [lo, hi]. Swapped bounds are reordered.
func Clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// IsFinite reports whether x is a real number, neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// PowerRatioDB is 10*log10(signal/noise). A zero noise power gives +Inf, a
// zero signal power -Inf and a negative operand NaN.
func PowerRatioDB(signal, noise float64) float64 {
	if signal < 0 || noise < 0 {
		return math.NaN()
	}
	return 10 * math.Log10(signal/noise)
}

// NextPowerOf2 returns the smallest power of two not below n, 1 for n <= 1.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
