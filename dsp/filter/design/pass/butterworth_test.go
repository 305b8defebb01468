package pass

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-txchain/dsp/filter/biquad"
)

func magnitudeDB(c *biquad.Chain, freq, sr float64) float64 {
	return 20 * math.Log10(cmplx.Abs(c.Response(freq, sr)))
}

func TestButterworthLP_SectionCount(t *testing.T) {
	sr := 48000.0
	for order := 1; order <= 8; order++ {
		want := (order + 1) / 2
		got, err := ButterworthLP(1000, order, sr)
		if err != nil {
			t.Fatalf("order %d: %v", order, err)
		}
		if len(got) != want {
			t.Fatalf("order %d: sections=%d, want %d", order, len(got), want)
		}
	}
}

func TestButterworthLP_OddOrderHasFirstOrderSection(t *testing.T) {
	for _, order := range []int{1, 3, 5, 7} {
		sections, err := ButterworthLP(1000, order, 48000)
		if err != nil {
			t.Fatal(err)
		}
		last := sections[len(sections)-1]
		if last.B2 != 0 || last.A2 != 0 {
			t.Errorf("order %d: last section is not first-order: %+v", order, last)
		}
		if got := biquad.NewChain(sections).Order(); got != order {
			t.Errorf("order %d: chain order=%d", order, got)
		}
	}
}

func TestButterworthLP_Minus3dBAtCutoff(t *testing.T) {
	sr := 48000.0
	for _, order := range []int{1, 2, 3, 4, 5, 6, 8} {
		sections, err := ButterworthLP(1000, order, sr)
		if err != nil {
			t.Fatal(err)
		}
		c := biquad.NewChain(sections)
		if db := magnitudeDB(c, 1000, sr); math.Abs(db+3.0103) > 0.01 {
			t.Errorf("order %d: %.4f dB at cutoff, want -3.01", order, db)
		}
		if db := magnitudeDB(c, 0.001, sr); math.Abs(db) > 1e-6 {
			t.Errorf("order %d: %.6f dB at DC, want 0", order, db)
		}
	}
}

func TestButterworthLP_HigherOrderSteeperRolloff(t *testing.T) {
	sr := 48000.0
	prev := 0.0
	for _, order := range []int{1, 2, 4, 6, 8} {
		sections, err := ButterworthLP(1000, order, sr)
		if err != nil {
			t.Fatal(err)
		}
		atten := -magnitudeDB(biquad.NewChain(sections), 4000, sr)
		if atten <= prev {
			t.Errorf("order %d: attenuation %.2f dB not above %.2f dB", order, atten, prev)
		}
		prev = atten
	}
}

func TestButterworthLP_AllSectionsStable(t *testing.T) {
	for _, sr := range []float64{1000, 8000, 48000} {
		for order := 1; order <= 10; order++ {
			sections, err := ButterworthLP(sr/8, order, sr)
			if err != nil {
				t.Fatal(err)
			}
			for i, s := range sections {
				if !s.Stable() {
					t.Errorf("sr=%v order=%d section %d unstable: %+v", sr, order, i, s)
				}
			}
		}
	}
}

func TestButterworthLP_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		freq  float64
		order int
		sr    float64
	}{
		{"zero order", 100, 0, 1000},
		{"zero cutoff", 0, 4, 1000},
		{"cutoff at nyquist", 500, 4, 1000},
		{"zero sample rate", 100, 4, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ButterworthLP(tc.freq, tc.order, tc.sr); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLowpassRBJ_InvalidYieldsZero(t *testing.T) {
	if c := LowpassRBJ(600, 0.7, 1000); c != (biquad.Coefficients{}) {
		t.Errorf("got %+v, want zero coefficients", c)
	}
	c := LowpassRBJ(100, 0, 1000)
	if c != LowpassRBJ(100, defaultQ, 1000) {
		t.Error("non-positive q did not fall back to the default")
	}
}
