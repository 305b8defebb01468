package pulse

import (
	"github.com/cwbudde/algo-txchain/dsp/core"
)

// Waveform is a sampled real signal.
//
// Delay is the latency in samples introduced by causal filtering upstream:
// the first symbol starts at sample Delay. Stages that keep the time base
// carry it over unchanged.
type Waveform struct {
	Samples    []float64
	SampleRate float64
	Delay      int
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the signal length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / w.SampleRate
}

// Time returns the time in seconds of sample n.
func (w Waveform) Time(n int) float64 {
	return float64(n) / w.SampleRate
}

// With returns a waveform carrying samples and w's time base.
func (w Waveform) With(samples []float64) Waveform {
	return Waveform{Samples: samples, SampleRate: w.SampleRate, Delay: w.Delay}
}

// Clone returns a deep copy of w.
func (w Waveform) Clone() Waveform {
	return w.With(core.Clone(w.Samples))
}

// ToUnipolar level-shifts a signed waveform in [-1, 1] to [0, 1] with
// (x+1)/2. Envelope ASK, FSK and PSK expect a non-negative baseband.
func ToUnipolar(w Waveform) Waveform {
	out := make([]float64, len(w.Samples))
	for i, v := range w.Samples {
		out[i] = (v + 1) / 2
	}
	return w.With(out)
}
