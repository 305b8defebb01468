// Package pipeline runs a bit sequence through the full transmission chain:
// line coding, pulse shaping, modulation, the noisy channel, demodulation,
// symbol clock recovery and bit decisions.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/cwbudde/algo-txchain/channel"
	"github.com/cwbudde/algo-txchain/clock"
	"github.com/cwbudde/algo-txchain/decision"
	"github.com/cwbudde/algo-txchain/demod"
	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/spectrum"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/modulation"
	"github.com/cwbudde/algo-txchain/pulse"
	freqstats "github.com/cwbudde/algo-txchain/stats/frequency"
)

const stage = "pipeline"

// Stage names an intermediate waveform of a run.
type Stage string

const (
	Baseband    Stage = "baseband"
	Modulated   Stage = "modulated"
	Received    Stage = "received"
	Demodulated Stage = "demodulated"
)

// Stages lists the recorded waveforms in chain order.
var Stages = []Stage{Baseband, Modulated, Received, Demodulated}

// Result records every intermediate product of a run.
type Result struct {
	Config Config

	Bits        linecode.Bits
	Symbols     linecode.Symbols
	Baseband    pulse.Waveform
	Modulated   pulse.Waveform
	Received    pulse.Waveform
	Demodulated pulse.Waveform

	// Carrier is the carrier frequency handed to the demodulator: the
	// configured one, or the one detected from Received. It is 0 for
	// envelope detection.
	Carrier float64
	Clock   clock.Estimate
	// SamplesPerBit is the decision window in samples, taken from the
	// configured period or, with UseRecoveredPeriod, from Clock.
	SamplesPerBit int

	Recovered linecode.Bits
	BitErrors int
	// SNR is the measured signal-to-noise ratio of the channel in dB.
	SNR float64
}

// Run transmits bits with cfg and decodes them again. Stage failures come
// back as *core.StageError naming the stage. ctx is checked between stages.
func Run(ctx context.Context, bits linecode.Bits, cfg Config) (*Result, error) {
	if len(bits) == 0 {
		return nil, core.NewStageError(stage, core.ErrInvalidInput, "bits", 0)
	}
	if err := bits.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Config: cfg, Bits: bits, SNR: math.NaN()}
	var err error

	// Encode
	if res.Symbols, err = linecode.Encode(bits, cfg.LineSpec()); err != nil {
		return nil, err
	}
	glog.V(1).Infof("pipeline: encoded %d bits as %s into %d symbols", len(bits), cfg.LineCode.Scheme, len(res.Symbols.Values))

	// Shape
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Baseband, err = pulse.Shape(res.Symbols, cfg.PeriodMs, cfg.SampleRate, cfg.PulseConfig()); err != nil {
		return nil, err
	}
	if cfg.Shaping.Unipolar && cfg.LineCode.Scheme.Signed() {
		res.Baseband = pulse.ToUnipolar(res.Baseband)
	}
	glog.V(1).Infof("pipeline: shaped %s baseband, %d samples, delay %d", cfg.Shaping.Mode, res.Baseband.Len(), res.Baseband.Delay)

	// Modulate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Modulated, err = modulation.Modulate(res.Baseband, cfg.ModulationSpec()); err != nil {
		return nil, err
	}
	glog.V(1).Infof("pipeline: modulated %s at %.1f Hz", cfg.Modulation.Scheme, cfg.Modulation.F0)

	// Channel
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var noiseOpts []channel.Option
	if cfg.Channel.Seed != 0 {
		noiseOpts = append(noiseOpts, channel.WithSeed(cfg.Channel.Seed))
	}
	if res.Received, err = channel.AddNoise(res.Modulated, cfg.Channel.NoiseLevel, noiseOpts...); err != nil {
		return nil, err
	}
	res.SNR = channel.SNR(res.Modulated, res.Received)
	glog.V(2).Infof("pipeline: channel noise %.4f, measured SNR %.1f dB", cfg.Channel.NoiseLevel, res.SNR)

	// Demodulate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dcfg := cfg.DemodulatorConfig()
	if dcfg.Method != demod.Envelope {
		if dcfg.Carrier == 0 {
			if dcfg.Carrier, err = demod.DetectCarrierFrequency(res.Received); err != nil {
				return nil, err
			}
			glog.V(2).Infof("pipeline: detected carrier %.2f Hz", dcfg.Carrier)
		}
		res.Carrier = dcfg.Carrier
	}
	if res.Demodulated, err = demod.Demodulate(res.Received, dcfg); err != nil {
		return nil, err
	}
	glog.V(1).Infof("pipeline: demodulated with %s", dcfg.Method)

	// Recover the symbol clock
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res.Clock, err = clock.EstimatePeriod(res.Demodulated, cfg.ClockOptions()...); err != nil {
		return nil, err
	}
	res.SamplesPerBit = pulse.SamplesPerSymbol(cfg.PeriodMs, cfg.SampleRate)
	switch {
	case res.Clock.OK:
		glog.V(1).Infof("pipeline: recovered period %.4f s from %d events", res.Clock.Period, len(res.Clock.Events))
		if cfg.Clock.UseRecoveredPeriod {
			res.SamplesPerBit = int(math.Round(res.Clock.Period * cfg.SampleRate))
		}
	case cfg.Clock.UseRecoveredPeriod:
		return nil, res.Clock.Err()
	default:
		glog.Warningf("pipeline: clock recovery found %d events, decoding with the configured period", len(res.Clock.Events))
	}

	// Decide
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Recovered, err = decision.DecodeLineCode(res.Demodulated, res.SamplesPerBit, cfg.LineSpec(), cfg.DecisionThreshold, res.Demodulated.Delay)
	if err != nil {
		return nil, err
	}
	res.BitErrors = bits.Errors(res.Recovered)
	glog.V(1).Infof("pipeline: recovered %s, %d bit errors", res.Recovered, res.BitErrors)

	return res, nil
}

// Waveform returns the recorded waveform of stage s.
func (r *Result) Waveform(s Stage) (pulse.Waveform, error) {
	switch s {
	case Baseband:
		return r.Baseband, nil
	case Modulated:
		return r.Modulated, nil
	case Received:
		return r.Received, nil
	case Demodulated:
		return r.Demodulated, nil
	default:
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "stage", string(s))
	}
}

// PSD returns the Welch power spectral density of stage s. The segment
// length defaults to the run's SegmentLength.
func (r *Result) PSD(s Stage, opts ...spectrum.WelchOption) (freqs, psd []float64, err error) {
	w, err := r.Waveform(s)
	if err != nil {
		return nil, nil, err
	}
	if r.Config.SegmentLength > 0 {
		opts = append([]spectrum.WelchOption{spectrum.WithSegmentLength(r.Config.SegmentLength)}, opts...)
	}
	freqs, psd, err = spectrum.Welch(w.Samples, w.SampleRate, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: psd of %s: %w", s, err)
	}
	return freqs, psd, nil
}

// Spectrum summarizes the PSD of stage s.
func (r *Result) Spectrum(s Stage) (freqstats.Stats, error) {
	w, err := r.Waveform(s)
	if err != nil {
		return freqstats.Stats{}, err
	}
	_, psd, err := r.PSD(s)
	if err != nil {
		return freqstats.Stats{}, err
	}
	return freqstats.Calculate(psd, w.SampleRate), nil
}
