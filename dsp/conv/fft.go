package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

// fftConvolve multiplies the zero-padded spectra of x and h. The transform
// size is the next power of two that holds the full result, so the circular
// product equals the linear one.
func fftConvolve(x, h []float64) ([]float64, error) {
	n := len(x) + len(h) - 1
	size := core.NextPowerOf2(n)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("conv: fft plan of size %d: %w", size, err)
	}

	xs := padded(x, size)
	hs := padded(h, size)
	if err := plan.Forward(xs, xs); err != nil {
		return nil, fmt.Errorf("conv: forward fft: %w", err)
	}
	if err := plan.Forward(hs, hs); err != nil {
		return nil, fmt.Errorf("conv: forward fft: %w", err)
	}
	for k := range xs {
		xs[k] *= hs[k]
	}
	if err := plan.Inverse(xs, xs); err != nil {
		return nil, fmt.Errorf("conv: inverse fft: %w", err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = real(xs[i])
	}
	return out, nil
}

func padded(x []float64, size int) []complex128 {
	buf := make([]complex128, size)
	for i, v := range x {
		buf[i] = complex(v, 0)
	}
	return buf
}
