// Package time summarizes a stage waveform in the time domain.
package time

import (
	"math"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

// Stats is the time-domain summary printed per stage.
type Stats struct {
	Length int
	DC     float64
	RMS    float64
	// Peak is the largest magnitude.
	Peak float64
	// Crest is Peak/RMS, 0 for a silent signal.
	Crest float64
	// ZeroCrossings counts sign changes between neighbours; samples that
	// are exactly 0 do not count.
	ZeroCrossings int
}

// Calculate summarizes signal in one pass.
func Calculate(signal []float64) Stats {
	s := Stats{Length: len(signal)}
	if s.Length == 0 {
		return s
	}

	var sum, sumSq float64
	for i, x := range signal {
		sum += x
		sumSq += x * x
		s.Peak = max(s.Peak, math.Abs(x))
		if i > 0 && signal[i-1]*x < 0 {
			s.ZeroCrossings++
		}
	}
	n := float64(s.Length)
	s.DC = sum / n
	s.RMS = math.Sqrt(sumSq / n)
	if s.RMS > 0 {
		s.Crest = s.Peak / s.RMS
	}
	return s
}

// Power is the mean square of signal, 0 when empty.
func Power(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var e float64
	for _, x := range signal {
		e += x * x
	}
	return e / float64(len(signal))
}

// RMS is the square root of Power.
func RMS(signal []float64) float64 {
	return math.Sqrt(Power(signal))
}

// DC is the mean of signal, 0 when empty. Decision windows average it, so
// the sum is compensated.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum, comp float64
	for _, x := range signal {
		y := x - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum / float64(len(signal))
}

// SNR is the power of clean over the power of noisy-clean in dB, taken over
// their common length. Identical signals give +Inf, a silent clean signal
// -Inf and empty input NaN.
func SNR(clean, noisy []float64) float64 {
	n := min(len(clean), len(noisy))
	if n == 0 {
		return math.NaN()
	}
	var ps, pn float64
	for i := range n {
		d := noisy[i] - clean[i]
		ps += clean[i] * clean[i]
		pn += d * d
	}
	if pn == 0 {
		return math.Inf(1)
	}
	return core.PowerRatioDB(ps, pn)
}
