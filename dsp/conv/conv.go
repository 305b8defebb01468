package conv

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

var (
	ErrEmptyInput  = errors.New("conv: empty input")
	ErrEmptyKernel = errors.New("conv: empty kernel")
)

// Kernels up to this length are convolved in the time domain.
const directMaxKernel = 64

// Convolve returns the full linear convolution of x and h, of length
// len(x)+len(h)-1. Long kernels go through the FFT.
func Convolve(x, h []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if len(h) == 0 {
		return nil, ErrEmptyKernel
	}
	if len(h) > len(x) {
		x, h = h, x
	}
	if len(h) <= directMaxKernel {
		return direct(x, h), nil
	}
	return fftConvolve(x, h)
}

// Same returns the part of the full convolution that lines up with x: its
// length is len(x) and the kernel is centered on each sample.
func Same(x, h []float64) ([]float64, error) {
	full, err := Convolve(x, h)
	if err != nil {
		return nil, err
	}
	off := (len(h) - 1) / 2
	return full[off : off+len(x)], nil
}

// MovingAverage smooths x with a centered boxcar of width samples and keeps
// its length. Width 1 returns a copy.
func MovingAverage(x []float64, width int) ([]float64, error) {
	if width < 1 {
		return nil, fmt.Errorf("conv: moving average width must be >= 1: %d", width)
	}
	switch {
	case len(x) == 0:
		return []float64{}, nil
	case width == 1:
		return core.Clone(x), nil
	}

	box := make([]float64, width)
	for i := range box {
		box[i] = 1 / float64(width)
	}
	return Same(x, box)
}

// direct accumulates a scaled copy of h at every input offset.
func direct(x, h []float64) []float64 {
	out := make([]float64, len(x)+len(h)-1)
	scaled := make([]float64, len(h))
	for i, v := range x {
		if v == 0 {
			continue
		}
		vecmath.ScaleBlock(scaled, h, v)
		vecmath.AddBlockInPlace(out[i:i+len(h)], scaled)
	}
	return out
}
