package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

// Transform returns the n-point DFT of the real signal x. x is zero-padded
// (or truncated) to n, which must be a power of two.
func Transform(x []float64, n int) ([]complex128, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("spectrum: fft size must be a power of two: %d", n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, n)
	for i := range min(n, len(x)) {
		in[i] = complex(x[i], 0)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}
	return out, nil
}

// PeakFrequency returns the positive frequency (Hz) of the largest FFT
// magnitude of x. The signal is zero-padded to the next power of two, so the
// result lies within one bin (sampleRate/len(x)) of a pure tone.
//
// A flat or noise-dominated spectrum still yields its largest bin; no attempt
// is made to detect that case.
func PeakFrequency(x []float64, sampleRate float64) (float64, error) {
	if len(x) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 samples, got %d", ErrEmptyInput, len(x))
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return 0, fmt.Errorf("spectrum: sample rate must be > 0: %v", sampleRate)
	}

	n := core.NextPowerOf2(len(x))
	bins, err := Transform(x, n)
	if err != nil {
		return 0, err
	}

	mag := Magnitude(bins[:n/2+1])
	peak := 1
	for k := 2; k < len(mag); k++ {
		if mag[k] > mag[peak] {
			peak = k
		}
	}

	return float64(peak) * sampleRate / float64(n), nil
}
