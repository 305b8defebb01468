package demod

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/filter/biquad"
	"github.com/cwbudde/algo-txchain/dsp/filter/design/pass"
	"github.com/cwbudde/algo-txchain/pulse"
)

// CoherentDetect multiplies w by 2*cos(2*pi*f*t) and removes the double
// frequency term with a zero-phase Butterworth low-pass (cfg.LowpassOrder,
// cfg.Cutoff). An ASK signal b[n]*cos(2*pi*f*t) yields b[n].
func CoherentDetect(w pulse.Waveform, f float64, cfg Config) (pulse.Waveform, error) {
	if err := checkCarrier(f, w.SampleRate, "carrier"); err != nil {
		return pulse.Waveform{}, err
	}
	lp, err := lowpass(w.SampleRate, cfg.Cutoff, f/2, cfg.LowpassOrder)
	if err != nil {
		return pulse.Waveform{}, err
	}
	i, _ := mix(w.Samples, f, w.SampleRate, false)
	return w.With(biquad.FiltFilt(lp, i)), nil
}

// PSKDetect recovers b[n] from cos(2*pi*f*t + dphi*b[n]): the coherent
// in-phase branch I = cos(dphi*b) is inverted with acos(I)/dphi. dphi must lie
// in (0, pi] for the inversion to be unique; 0 selects pi.
func PSKDetect(w pulse.Waveform, f, dphi float64, cfg Config) (pulse.Waveform, error) {
	if dphi == 0 {
		dphi = math.Pi
	}
	if !(dphi > 0) || dphi > math.Pi {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "phase_deviation", dphi)
	}

	i, err := CoherentDetect(w, f, cfg)
	if err != nil {
		return pulse.Waveform{}, err
	}
	out := i.Samples
	for n, v := range out {
		out[n] = math.Acos(core.Clamp(v, -1, 1)) / dphi
	}
	return i, nil
}

// FSKDetect mixes w with quadrature carriers at both tones, low-pass filters
// each branch and returns e1/(e0+e1) from the branch envelopes: close to 0
// where f0 dominates and close to 1 where f1 does. The default cutoff is half
// the tone spacing.
func FSKDetect(w pulse.Waveform, f0, f1 float64, cfg Config) (pulse.Waveform, error) {
	if err := checkCarrier(f0, w.SampleRate, "carrier"); err != nil {
		return pulse.Waveform{}, err
	}
	if err := checkCarrier(f1, w.SampleRate, "f1"); err != nil || f1 == f0 {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "f1", f1)
	}
	lp, err := lowpass(w.SampleRate, cfg.Cutoff, math.Abs(f1-f0)/2, cfg.LowpassOrder)
	if err != nil {
		return pulse.Waveform{}, err
	}

	e0 := envelopeAt(w, f0, lp)
	e1 := envelopeAt(w, f1, lp)

	out := make([]float64, len(w.Samples))
	for n := range out {
		if sum := e0[n] + e1[n]; sum > 0 {
			out[n] = e1[n] / sum
		}
	}
	return w.With(out), nil
}

// envelopeAt returns the magnitude of the low-passed quadrature mix at f.
func envelopeAt(w pulse.Waveform, f float64, lp []biquad.Coefficients) []float64 {
	i, q := mix(w.Samples, f, w.SampleRate, true)
	i = biquad.FiltFilt(lp, i)
	q = biquad.FiltFilt(lp, q)
	env := make([]float64, len(i))
	vecmath.Magnitude(env, i, q)
	return env
}

// mix returns 2*x*cos(wt) and, when quadrature is set, 2*x*sin(wt).
func mix(x []float64, f, fs float64, quadrature bool) (i, q []float64) {
	lo := make([]float64, len(x))
	step := 2 * math.Pi * f / fs
	for n := range lo {
		lo[n] = 2 * math.Cos(step*float64(n))
	}
	i = make([]float64, len(x))
	vecmath.MulBlock(i, x, lo)

	if !quadrature {
		return i, nil
	}
	for n := range lo {
		lo[n] = 2 * math.Sin(step*float64(n))
	}
	q = make([]float64, len(x))
	vecmath.MulBlock(q, x, lo)
	return i, q
}

// lowpass designs the Butterworth cascade. cutoff 0 selects def.
func lowpass(fs, cutoff, def float64, order int) ([]biquad.Coefficients, error) {
	if cutoff == 0 {
		cutoff = def
	}
	if order == 0 {
		order = DefaultLowpassOrder
	}
	if order < 0 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "lowpass_order", order)
	}
	coeffs, err := pass.ButterworthLP(cutoff, order, fs)
	if err != nil {
		return nil, core.NewStageError(stage, fmt.Errorf("%w: %w", core.ErrInvalidConfiguration, err), "cutoff", cutoff)
	}
	if err := checkStable(coeffs); err != nil {
		return nil, err
	}
	return coeffs, nil
}

// checkStable rejects a cascade with a pole on or outside the unit circle,
// which a cutoff rounding onto DC or Nyquist can produce.
func checkStable(coeffs []biquad.Coefficients) error {
	for i, c := range coeffs {
		if !c.Stable() {
			return core.NewStageError(stage, core.ErrNumericDegeneracy, "lowpass_section", i)
		}
	}
	return nil
}

func checkCarrier(f, fs float64, field string) error {
	if err := checkSampleRate(fs); err != nil {
		return err
	}
	if !(f > 0) || f > fs/2 {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, field, f)
	}
	return nil
}
