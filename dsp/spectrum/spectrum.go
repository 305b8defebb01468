package spectrum

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// ErrEmptyInput is returned when an analysis receives no samples.
var ErrEmptyInput = errors.New("spectrum: empty input")

// Magnitude returns |X[k]| per bin, nil for no bins.
func Magnitude(bins []complex128) []float64 {
	return perBin(bins, vecmath.Magnitude)
}

// Power returns |X[k]|^2 per bin, nil for no bins.
func Power(bins []complex128) []float64 {
	return perBin(bins, vecmath.Power)
}

// perBin splits bins into real and imaginary parts and hands them to a
// vecmath kernel writing one value per bin.
func perBin(bins []complex128, kernel func(dst, re, im []float64)) []float64 {
	n := len(bins)
	if n == 0 {
		return nil
	}
	parts := make([]float64, 2*n)
	re, im := parts[:n], parts[n:]
	for k, c := range bins {
		re[k], im[k] = real(c), imag(c)
	}
	out := make([]float64, n)
	kernel(out, re, im)
	return out
}
