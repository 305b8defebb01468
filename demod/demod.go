// Package demod recovers a baseband estimate from a received passband
// waveform.
//
// Coherent, PSK and FSK demodulation mix the signal with a local carrier and
// remove the mixing products with a zero-phase Butterworth low-pass. Envelope
// demodulation is non-coherent and only suits ASK. The carrier frequency is
// either configured or taken from the FFT magnitude peak of the received
// signal; see [DetectCarrierFrequency] for the limits of that heuristic.
package demod

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/pulse"
)

const stage = "demod"

// DefaultLowpassOrder is the Butterworth order used when Config.LowpassOrder
// is zero.
const DefaultLowpassOrder = 5

// Method selects a demodulator.
type Method int

const (
	// Coherent mixes with the carrier and low-pass filters (ASK).
	Coherent Method = iota
	// Envelope rectifies the signal (ASK, non-coherent).
	Envelope
	// PSK recovers the phase offset of the carrier.
	PSK
	// FSK compares the envelopes at the two tones.
	FSK
)

var methodNames = map[Method]string{
	Coherent: "coherent",
	Envelope: "envelope",
	PSK:      "psk",
	FSK:      "fsk",
}

// String returns the lower-case method name.
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a method name (case-insensitive) to a Method.
func ParseMethod(name string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for m, n := range methodNames {
		if n == key {
			return m, nil
		}
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "method", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config parameterizes [Demodulate]. Zero values select defaults where noted.
type Config struct {
	Method Method

	// Carrier is the carrier (FSK: lower tone) frequency in Hz. 0 detects it
	// from the FFT magnitude peak.
	Carrier float64
	// F1 is the upper FSK tone in Hz. 0 means 2*Carrier.
	F1 float64
	// PhaseDeviation is the PSK phase shift for a baseband of 1. 0 means pi.
	PhaseDeviation float64

	// LowpassOrder is the Butterworth order. 0 means DefaultLowpassOrder.
	LowpassOrder int
	// Cutoff is the low-pass cutoff in Hz. 0 means Carrier/2, or half the
	// tone spacing for FSK.
	Cutoff float64

	// Smoothing is the moving-average width applied to the envelope. Values
	// below 2 disable smoothing.
	Smoothing int
	// Binarize maps the envelope to 1 where it reaches Threshold and 0
	// elsewhere.
	Binarize  bool
	Threshold float64

	// NormalizePolarity applies [NormalizePolarity] to the result.
	NormalizePolarity bool
}

// DefaultConfig returns a coherent demodulator with carrier detection and a
// fifth-order low-pass.
func DefaultConfig() Config {
	return Config{
		Method:       Coherent,
		LowpassOrder: DefaultLowpassOrder,
	}
}

// Demodulate dispatches on cfg.Method and returns the baseband estimate. The
// result keeps the time base (sample rate and delay) of w.
func Demodulate(w pulse.Waveform, cfg Config) (pulse.Waveform, error) {
	if err := checkSampleRate(w.SampleRate); err != nil {
		return pulse.Waveform{}, err
	}

	var (
		out pulse.Waveform
		err error
	)

	switch cfg.Method {
	case Envelope:
		out, err = EnvelopeDetect(w, cfg)
	case Coherent, PSK, FSK:
		carrier := cfg.Carrier
		if carrier == 0 {
			if carrier, err = DetectCarrierFrequency(w); err != nil {
				return pulse.Waveform{}, err
			}
		}
		switch cfg.Method {
		case Coherent:
			out, err = CoherentDetect(w, carrier, cfg)
		case PSK:
			out, err = PSKDetect(w, carrier, cfg.PhaseDeviation, cfg)
		default:
			f1 := cfg.F1
			if f1 == 0 {
				f1 = 2 * carrier
			}
			out, err = FSKDetect(w, carrier, f1, cfg)
		}
	default:
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "method", int(cfg.Method))
	}
	if err != nil {
		return pulse.Waveform{}, err
	}

	if cfg.NormalizePolarity {
		out = NormalizePolarity(out)
	}
	return out, nil
}

// NormalizePolarity negates the whole waveform when its first sample is
// negative, resolving the 180 degree ambiguity of coherent detection.
//
// This is a heuristic: a first sample near zero, for example after noise,
// can flip a correctly oriented signal.
func NormalizePolarity(w pulse.Waveform) pulse.Waveform {
	if len(w.Samples) == 0 || w.Samples[0] >= 0 {
		return w.Clone()
	}
	out := make([]float64, len(w.Samples))
	for i, v := range w.Samples {
		out[i] = -v
	}
	return w.With(out)
}

func checkSampleRate(fs float64) error {
	if !(fs > 0) || math.IsInf(fs, 0) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", fs)
	}
	return nil
}
