package demod

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/filter/biquad"
	"github.com/cwbudde/algo-txchain/internal/testutil"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/modulation"
	"github.com/cwbudde/algo-txchain/pulse"
)

const fs = 1000.0

// transmit encodes bits, holds every symbol for periodMs and modulates.
func transmit(t *testing.T, bits linecode.Bits, scheme linecode.Scheme, periodMs float64, spec modulation.Spec) pulse.Waveform {
	t.Helper()
	sym, err := linecode.Encode(bits, linecode.Spec{Scheme: scheme})
	if err != nil {
		t.Fatal(err)
	}
	bb, err := pulse.Shape(sym, periodMs, fs, pulse.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	w, err := modulation.Modulate(bb, spec)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

// midSymbols returns the sample at the center of every symbol.
func midSymbols(w pulse.Waveform, spb, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = w.Samples[i*spb+spb/2]
	}
	return out
}

func TestDetectCarrierFrequency(t *testing.T) {
	const n = 1000
	for _, f := range []float64{50, 123, 250, 317.5, 400} {
		s := testutil.Tone(f, fs, 1, n)
		got, err := DetectCarrierFrequency(pulse.Waveform{Samples: s, SampleRate: fs})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-f) > fs/n {
			t.Errorf("f=%v: detected %v, want within %v Hz", f, got, fs/n)
		}
	}
}

func TestDetectCarrierFrequency_ModulatedASK(t *testing.T) {
	w := transmit(t, linecode.Bits{1, 0, 1, 1, 0}, linecode.Unipolar, 100, modulation.Spec{Scheme: modulation.ASK, F0: 250})
	got, err := DetectCarrierFrequency(w)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-250) > fs/float64(w.Len()) {
		t.Fatalf("detected %v Hz, want 250", got)
	}
}

func TestDetectCarrierFrequency_Errors(t *testing.T) {
	_, err := DetectCarrierFrequency(pulse.Waveform{Samples: []float64{1}, SampleRate: fs})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("short input: err = %v, want ErrInvalidInput", err)
	}
	_, err = DetectCarrierFrequency(pulse.Waveform{Samples: []float64{1, 0, -1}, SampleRate: 0})
	if !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("zero sample rate: err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestCoherentDetect_ASK(t *testing.T) {
	bits := linecode.Bits{1, 0, 1, 1, 0}
	for _, tc := range []struct {
		name   string
		scheme linecode.Scheme
		low    float64
	}{
		{"unipolar", linecode.Unipolar, 0},
		{"nrz", linecode.NRZ, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := transmit(t, bits, tc.scheme, 100, modulation.Spec{Scheme: modulation.ASK, F0: 250})
			bb, err := CoherentDetect(w, 250, DefaultConfig())
			if err != nil {
				t.Fatal(err)
			}
			if bb.Len() != w.Len() || bb.SampleRate != fs {
				t.Fatalf("time base changed: %d/%v", bb.Len(), bb.SampleRate)
			}
			for i, v := range midSymbols(bb, 100, len(bits)) {
				want := tc.low
				if bits[i] == 1 {
					want = 1
				}
				if math.Abs(v-want) > 0.02 {
					t.Errorf("symbol %d: %v, want %v", i, v, want)
				}
			}
		})
	}
}

func TestPSKDetect(t *testing.T) {
	bits := linecode.Bits{0, 1, 1, 0, 1}
	w := transmit(t, bits, linecode.Unipolar, 200, modulation.Spec{Scheme: modulation.PSK, F0: 100})

	bb, err := PSKDetect(w, 100, math.Pi, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range midSymbols(bb, 200, len(bits)) {
		if math.Abs(v-float64(bits[i])) > 0.05 {
			t.Errorf("symbol %d: %v, want %d", i, v, bits[i])
		}
	}
	for _, v := range bb.Samples {
		if v < 0 || v > 1 {
			t.Fatalf("estimate %v outside [0, 1]", v)
		}
	}
}

func TestFSKDetect(t *testing.T) {
	bits := linecode.Bits{1, 0, 0, 1, 1, 0}
	w := transmit(t, bits, linecode.Unipolar, 200, modulation.Spec{Scheme: modulation.FSK, F0: 100, F1: 200})

	bb, err := FSKDetect(w, 100, 200, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range midSymbols(bb, 200, len(bits)) {
		if math.Abs(v-float64(bits[i])) > 0.05 {
			t.Errorf("symbol %d: %v, want %d", i, v, bits[i])
		}
	}
}

func TestEnvelopeDetect(t *testing.T) {
	w := pulse.Waveform{Samples: []float64{1, 0, -1, 0.05, -0.5, 0}, SampleRate: fs, Delay: 2}

	got, err := EnvelopeDetect(w, Config{Method: Envelope})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 0, 1, 0.05, 0.5, 0}
	for i := range want {
		if got.Samples[i] != want[i] {
			t.Fatalf("envelope = %v, want %v", got.Samples, want)
		}
	}
	if got.Delay != 2 {
		t.Fatalf("Delay = %d, want 2", got.Delay)
	}

	bin, err := EnvelopeDetect(w, Config{Method: Envelope, Binarize: true, Threshold: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	wantBin := []float64{1, 0, 1, 0, 1, 0}
	for i := range wantBin {
		if bin.Samples[i] != wantBin[i] {
			t.Fatalf("binarized = %v, want %v", bin.Samples, wantBin)
		}
	}
	if w.Samples[2] != -1 {
		t.Fatal("input was mutated")
	}
}

func TestEnvelopeDetect_Smoothing(t *testing.T) {
	w := transmit(t, linecode.Bits{1, 0, 1}, linecode.Unipolar, 100, modulation.Spec{Scheme: modulation.ASK, F0: 250})
	got, err := EnvelopeDetect(w, Config{Method: Envelope, Smoothing: 4})
	if err != nil {
		t.Fatal(err)
	}
	// |cos(pi n / 2)| averages to 0.5 over four samples.
	for i, want := range []float64{0.5, 0, 0.5} {
		if v := got.Samples[i*100+50]; math.Abs(v-want) > 1e-9 {
			t.Errorf("symbol %d: %v, want %v", i, v, want)
		}
	}

	if _, err := EnvelopeDetect(w, Config{Smoothing: -1}); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("negative smoothing: err = %v", err)
	}
}

func TestNormalizePolarity(t *testing.T) {
	neg := pulse.Waveform{Samples: []float64{-1, -0.5, 1}, SampleRate: fs}
	got := NormalizePolarity(neg)
	if got.Samples[0] != 1 || got.Samples[1] != 0.5 || got.Samples[2] != -1 {
		t.Fatalf("flipped = %v", got.Samples)
	}
	if neg.Samples[0] != -1 {
		t.Fatal("input was mutated")
	}

	pos := pulse.Waveform{Samples: []float64{0, -1}, SampleRate: fs}
	if got := NormalizePolarity(pos); got.Samples[1] != -1 {
		t.Fatalf("non-negative first sample flipped: %v", got.Samples)
	}

	if got := NormalizePolarity(pulse.Waveform{SampleRate: fs}); got.Len() != 0 {
		t.Fatal("empty waveform grew")
	}
}

// A correctly oriented baseband whose first sample sits just below zero is
// flipped anyway. The heuristic only looks at one sample.
func TestNormalizePolarity_NearZeroFirstSampleMisfires(t *testing.T) {
	correct := pulse.Waveform{Samples: []float64{-0.001, 0.9, 1, 1, -1, -1}, SampleRate: fs}
	got := NormalizePolarity(correct)
	if got.Samples[2] != -1 {
		t.Fatalf("expected the heuristic to invert the signal, got %v", got.Samples)
	}
}

func TestDemodulate_Dispatch(t *testing.T) {
	bits := linecode.Bits{1, 0, 1, 1, 0}
	ask := transmit(t, bits, linecode.Unipolar, 100, modulation.Spec{Scheme: modulation.ASK, F0: 250})

	detected, err := Demodulate(ask, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := CoherentDetect(ask, 250, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := range explicit.Samples {
		if math.Abs(detected.Samples[i]-explicit.Samples[i]) > 1e-9 {
			t.Fatalf("sample %d: detected-carrier %v, explicit %v", i, detected.Samples[i], explicit.Samples[i])
		}
	}

	env, err := Demodulate(ask, Config{Method: Envelope, Binarize: true, Threshold: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if env.Samples[100] != 0 || env.Samples[0] != 1 {
		t.Fatalf("envelope dispatch: %v %v", env.Samples[0], env.Samples[100])
	}

	fsk := transmit(t, bits, linecode.Unipolar, 200, modulation.Spec{Scheme: modulation.FSK, F0: 100})
	bb, err := Demodulate(fsk, Config{Method: FSK, Carrier: 100})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range midSymbols(bb, 200, len(bits)) {
		if math.Abs(v-float64(bits[i])) > 0.05 {
			t.Errorf("fsk symbol %d: %v, want %d", i, v, bits[i])
		}
	}
}

func TestDemodulate_Errors(t *testing.T) {
	w := transmit(t, linecode.Bits{1, 0}, linecode.Unipolar, 100, modulation.Spec{Scheme: modulation.ASK, F0: 250})

	tests := []struct {
		name  string
		w     pulse.Waveform
		cfg   Config
		field string
	}{
		{"unknown method", w, Config{Method: Method(9)}, "method"},
		{"zero sample rate", pulse.Waveform{Samples: w.Samples}, DefaultConfig(), "sample_rate"},
		{"carrier above nyquist", w, Config{Carrier: 600}, "carrier"},
		{"cutoff at nyquist", w, Config{Carrier: 250, Cutoff: 500}, "cutoff"},
		{"negative order", w, Config{Carrier: 250, LowpassOrder: -2}, "lowpass_order"},
		{"psk deviation", w, Config{Method: PSK, Carrier: 250, PhaseDeviation: 4}, "phase_deviation"},
		{"fsk equal tones", w, Config{Method: FSK, Carrier: 100, F1: 100}, "f1"},
		{"fsk tone above nyquist", w, Config{Method: FSK, Carrier: 300}, "f1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Demodulate(tt.w, tt.cfg)
			if !errors.Is(err, core.ErrInvalidConfiguration) {
				t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
			}
			var se *core.StageError
			if !errors.As(err, &se) || se.Stage != stage || se.Field != tt.field {
				t.Fatalf("err = %#v, want stage %q field %q", err, stage, tt.field)
			}
		})
	}
}

func TestLowpass_Stability(t *testing.T) {
	coeffs, err := lowpass(fs, 0, 125, DefaultLowpassOrder)
	if err != nil {
		t.Fatal(err)
	}
	if len(coeffs) == 0 {
		t.Fatal("no sections")
	}

	unstable := append(coeffs, biquad.Coefficients{B0: 1, A1: -2, A2: 1})
	err = checkStable(unstable)
	if !errors.Is(err, core.ErrNumericDegeneracy) {
		t.Fatalf("err=%v, want ErrNumericDegeneracy", err)
	}
	if core.StageOf(err) != stage {
		t.Fatalf("stage=%q, want %q", core.StageOf(err), stage)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{Coherent, Envelope, PSK, FSK} {
		got, err := ParseMethod(" " + m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	var m Method
	if err := m.UnmarshalText([]byte("ENVELOPE")); err != nil || m != Envelope {
		t.Fatalf("UnmarshalText = %v, %v", m, err)
	}
	if _, err := ParseMethod("qam"); !errors.Is(err, core.ErrInvalidConfiguration) {
		t.Fatalf("ParseMethod(qam) err = %v", err)
	}
}
