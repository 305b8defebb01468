package channel

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/internal/testutil"
	"github.com/cwbudde/algo-txchain/pulse"
	timestats "github.com/cwbudde/algo-txchain/stats/time"
)

func carrier(n int) pulse.Waveform {
	return pulse.Waveform{Samples: testutil.Tone(250, 1000, 1, n), SampleRate: 1000, Delay: 7}
}

func TestAddNoise_ZeroLevelIsExactCopy(t *testing.T) {
	w := carrier(64)
	got, err := AddNoise(w, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Samples, w.Samples) {
		t.Fatal("level 0 changed the waveform")
	}
	got.Samples[0] = 42
	if w.Samples[0] == 42 {
		t.Fatal("level 0 result aliases the input")
	}
}

func TestAddNoise_Statistics(t *testing.T) {
	const n = 20000
	w := pulse.Waveform{Samples: make([]float64, n), SampleRate: 1000}
	got, err := AddNoise(w, 0.5, WithSeed(7))
	if err != nil {
		t.Fatal(err)
	}
	mean, std := timestats.DC(got.Samples), timestats.RMS(got.Samples)
	if math.Abs(mean) > 0.02 {
		t.Errorf("mean = %v, want ~0", mean)
	}
	if math.Abs(std-0.5) > 0.02 {
		t.Errorf("std = %v, want ~0.5", std)
	}
}

func TestAddNoise_PreservesTimeBase(t *testing.T) {
	w := carrier(100)
	before := slices.Clone(w.Samples)
	got, err := AddNoise(w, 0.1, WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != w.Len() || got.SampleRate != w.SampleRate || got.Delay != w.Delay {
		t.Fatalf("time base changed: %d/%v/%d", got.Len(), got.SampleRate, got.Delay)
	}
	if !slices.Equal(w.Samples, before) {
		t.Fatal("input was mutated")
	}
}

func TestAddNoise_Seeded(t *testing.T) {
	w := carrier(256)
	a, _ := AddNoise(w, 0.3, WithSeed(99))
	b, _ := AddNoise(w, 0.3, WithSeed(99))
	c, _ := AddNoise(w, 0.3, WithSeed(100))
	if !slices.Equal(a.Samples, b.Samples) {
		t.Fatal("same seed produced different noise")
	}
	if slices.Equal(a.Samples, c.Samples) {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestAddNoise_InvalidLevel(t *testing.T) {
	for _, level := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		_, err := AddNoise(carrier(8), level)
		if !errors.Is(err, core.ErrInvalidConfiguration) {
			t.Errorf("level %v: err = %v, want ErrInvalidConfiguration", level, err)
		}
		if core.StageOf(err) != stage {
			t.Errorf("level %v: stage = %q", level, core.StageOf(err))
		}
	}
}

func TestSNR(t *testing.T) {
	w := carrier(4000)
	if got := SNR(w, w); !math.IsInf(got, 1) {
		t.Fatalf("SNR of identical waveforms = %v, want +Inf", got)
	}
	// Carrier power 0.5, noise power 0.01: 17 dB.
	noisy, err := AddNoise(w, 0.1, WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	if got := SNR(w, noisy); math.Abs(got-17) > 0.5 {
		t.Fatalf("SNR = %v dB, want ~17", got)
	}
}
