package pass

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-txchain/dsp/filter/biquad"
)

const defaultQ = 1 / math.Sqrt2

// ButterworthLP designs an order-th Butterworth low-pass with its -3 dB
// point at freq as a cascade of bilinear-transformed sections. Pairs of
// poles become RBJ low-pass biquads, lowest Q last; an odd order adds a
// first-order section at the end.
func ButterworthLP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	if order < 1 {
		return nil, fmt.Errorf("pass: butterworth order must be > 0: %d", order)
	}
	if !inBand(freq, sampleRate) {
		return nil, fmt.Errorf("pass: cutoff %v Hz outside (0, %v)", freq, sampleRate/2)
	}

	sections := make([]biquad.Coefficients, 0, (order+1)/2)
	for k := order/2 - 1; k >= 0; k-- {
		// Pole pair k sits at angle (2k+1)pi/2n from the imaginary axis.
		q := 1 / (2 * math.Sin(math.Pi*float64(2*k+1)/float64(2*order)))
		sections = append(sections, LowpassRBJ(freq, q, sampleRate))
	}
	if order%2 == 1 {
		sections = append(sections, firstOrderLP(freq, sampleRate))
	}
	return sections, nil
}

// LowpassRBJ is the second-order low-pass of the RBJ audio EQ cookbook at
// freq with quality q. A non-positive or non-finite q means 1/sqrt(2). An
// out-of-band freq yields the zero section.
func LowpassRBJ(freq, q, sampleRate float64) biquad.Coefficients {
	if !inBand(freq, sampleRate) {
		return biquad.Coefficients{}
	}
	if !(q > 0) || math.IsInf(q, 0) {
		q = defaultQ
	}

	sin, cos := math.Sincos(2 * math.Pi * freq / sampleRate)
	alpha := sin / (2 * q)
	a0 := 1 + alpha
	b := (1 - cos) / (2 * a0)
	return biquad.Coefficients{
		B0: b,
		B1: 2 * b,
		B2: b,
		A1: -2 * cos / a0,
		A2: (1 - alpha) / a0,
	}
}

func firstOrderLP(freq, sampleRate float64) biquad.Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	g := k / (1 + k)
	return biquad.Coefficients{B0: g, B1: g, A1: (k - 1) / (k + 1)}
}

func inBand(freq, sampleRate float64) bool {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return false
	}
	return freq > 0 && freq < sampleRate/2
}
