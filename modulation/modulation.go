// Package modulation places a baseband waveform onto a carrier with
// amplitude, frequency or phase shift keying.
package modulation

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/pulse"
)

const stage = "modulation"

// Scheme identifies a keying scheme.
type Scheme int

const (
	// ASK multiplies the carrier by the baseband.
	ASK Scheme = iota
	// FSK shifts the instantaneous frequency between F0 and F1 in proportion
	// to the baseband, with continuous phase.
	FSK
	// PSK shifts the carrier phase by PhaseDeviation times the baseband.
	PSK
)

// String returns the lower-case scheme name.
func (s Scheme) String() string {
	switch s {
	case ASK:
		return "ask"
	case FSK:
		return "fsk"
	case PSK:
		return "psk"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme maps "ask", "fsk" or "psk" (case-insensitive) to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ask":
		return ASK, nil
	case "fsk":
		return FSK, nil
	case "psk":
		return PSK, nil
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "scheme", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	v, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Spec selects the scheme and its carrier parameters. Zero values of F1
// and PhaseDeviation take their defaults: F1 = 2*F0 and PhaseDeviation = pi.
type Spec struct {
	Scheme         Scheme
	F0             float64
	F1             float64
	PhaseDeviation float64
}

// Resolved returns spec with its defaults filled in.
func (s Spec) Resolved() Spec {
	if s.F1 == 0 {
		s.F1 = 2 * s.F0
	}
	if s.PhaseDeviation == 0 {
		s.PhaseDeviation = math.Pi
	}
	return s
}

// Validate checks the carrier frequencies against the sample rate.
func (s Spec) Validate(sampleRate float64) error {
	s = s.Resolved()
	nyquist := sampleRate / 2
	if !(s.F0 > 0) || s.F0 > nyquist {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "f0", s.F0)
	}
	if s.Scheme == FSK && (!(s.F1 > 0) || s.F1 > nyquist) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "f1", s.F1)
	}
	if s.Scheme == PSK && (math.IsNaN(s.PhaseDeviation) || math.IsInf(s.PhaseDeviation, 0)) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "phase_deviation", s.PhaseDeviation)
	}
	switch s.Scheme {
	case ASK, FSK, PSK:
		return nil
	default:
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "scheme", int(s.Scheme))
	}
}

// Modulate keys a carrier with baseband, sample n taken at t = n/SampleRate:
//
//	ASK: b[n] * cos(2*pi*f0*t)
//	FSK: cos(2*pi*(f0*t + (f1-f0) * sum(b[0..n]) / fs))
//	PSK: cos(2*pi*f0*t + dphi*b[n])
//
// FSK and PSK expect a baseband in [0, 1]; see pulse.ToUnipolar.
func Modulate(baseband pulse.Waveform, spec Spec) (pulse.Waveform, error) {
	fs := baseband.SampleRate
	if !(fs > 0) || math.IsInf(fs, 0) {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", fs)
	}
	if err := spec.Validate(fs); err != nil {
		return pulse.Waveform{}, err
	}
	spec = spec.Resolved()

	out := make([]float64, len(baseband.Samples))
	w0 := 2 * math.Pi * spec.F0 / fs

	switch spec.Scheme {
	case ASK:
		for n, b := range baseband.Samples {
			out[n] = b * math.Cos(w0*float64(n))
		}
	case FSK:
		var cum float64
		for n, b := range baseband.Samples {
			cum += b
			phase := spec.F0*float64(n)/fs + (spec.F1-spec.F0)*cum/fs
			out[n] = math.Cos(2 * math.Pi * phase)
		}
	case PSK:
		for n, b := range baseband.Samples {
			out[n] = math.Cos(w0*float64(n) + spec.PhaseDeviation*b)
		}
	}

	return baseband.With(out), nil
}
