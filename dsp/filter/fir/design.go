package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-txchain/dsp/window"
)

// ErrInvalidDesign is returned for out-of-range design parameters.
var ErrInvalidDesign = errors.New("fir: invalid design parameters")

// RaisedCosine designs a linear-phase raised-cosine pulse of numTaps taps for
// a symbol time of samplesPerSymbol samples. The ideal response is truncated
// with a Kaiser window of the given beta and normalized to unit DC gain.
//
// numTaps must be odd and positive, samplesPerSymbol positive, rollOff within
// [0, 1] and beta non-negative.
func RaisedCosine(numTaps int, samplesPerSymbol, rollOff, beta float64) ([]float64, error) {
	if numTaps < 1 || numTaps%2 == 0 {
		return nil, fmt.Errorf("%w: tap count must be odd and positive: %d", ErrInvalidDesign, numTaps)
	}
	if !(samplesPerSymbol > 0) || math.IsInf(samplesPerSymbol, 0) {
		return nil, fmt.Errorf("%w: samples per symbol must be > 0: %v", ErrInvalidDesign, samplesPerSymbol)
	}
	if !(rollOff >= 0 && rollOff <= 1) {
		return nil, fmt.Errorf("%w: roll-off must be in [0, 1]: %v", ErrInvalidDesign, rollOff)
	}

	win, err := window.Kaiser(numTaps, beta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDesign, err)
	}

	mid := float64(numTaps-1) / 2
	taps := make([]float64, numTaps)
	for i := range taps {
		t := (float64(i) - mid) / samplesPerSymbol
		taps[i] = raisedCosineAt(t, rollOff) * win[i]
	}

	return normalizeDC(taps)
}

// raisedCosineAt evaluates the raised-cosine impulse response at t symbol
// periods from its center.
func raisedCosineAt(t, rollOff float64) float64 {
	if rollOff > 0 {
		d := 2 * rollOff * t
		if math.Abs(math.Abs(d)-1) < 1e-12 {
			return math.Pi / 4 * sinc(1/(2*rollOff))
		}
		return sinc(t) * math.Cos(math.Pi*rollOff*t) / (1 - d*d)
	}
	return sinc(t)
}

// sinc is the normalized sinc function sin(pi x)/(pi x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func normalizeDC(taps []float64) ([]float64, error) {
	var sum float64
	for _, v := range taps {
		sum += v
	}
	if sum == 0 || math.IsNaN(sum) {
		return nil, fmt.Errorf("%w: taps sum to %v", ErrInvalidDesign, sum)
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps, nil
}
