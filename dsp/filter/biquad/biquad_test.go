package biquad

import (
	"math"
	"math/cmplx"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func testCoeffs() Coefficients {
	return Coefficients{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04}
}

func TestSection_ImpulseResponse(t *testing.T) {
	s := NewSection(testCoeffs())
	want := []float64{0.25, 0.55, 0.35, 0.048, -0.0044, -0.0028}
	for n, w := range want {
		x := 0.0
		if n == 0 {
			x = 1
		}
		if y := s.ProcessSample(x); !almostEqual(y, w, 1e-9) {
			t.Errorf("h[%d] = %v, want %v", n, y, w)
		}
	}
}

func TestSection_SettleHoldsConstant(t *testing.T) {
	s := NewSection(testCoeffs())
	y0 := s.Settle(-1.5)
	if want := -1.5 * testCoeffs().DCGain(); !almostEqual(y0, want, eps) {
		t.Fatalf("Settle = %v, want %v", y0, want)
	}
	for n := range 20 {
		if y := s.ProcessSample(-1.5); !almostEqual(y, y0, eps) {
			t.Fatalf("sample %d drifted to %v from %v", n, y, y0)
		}
	}
}

func TestSection_Reset(t *testing.T) {
	s := NewSection(testCoeffs())
	first := s.ProcessSample(1)
	s.ProcessSample(0.3)
	s.Reset()
	if got := s.ProcessSample(1); got != first {
		t.Fatalf("after Reset got %v, want %v", got, first)
	}
}

func TestCoefficients_Stable(t *testing.T) {
	tests := []struct {
		name string
		c    Coefficients
		want bool
	}{
		{"damped pair", testCoeffs(), true},
		{"first order", Coefficients{B0: 0.5, B1: 0.5, A1: -0.3}, true},
		{"real pole outside", Coefficients{B0: 1, A1: -2.1, A2: 1.1}, false},
		{"pole on circle", Coefficients{B0: 1, A2: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Stable(); got != tt.want {
			t.Errorf("%s: Stable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCoefficients_ResponseAtDC(t *testing.T) {
	c := testCoeffs()
	if h := c.Response(0, 1000); cmplx.Abs(h-complex(c.DCGain(), 0)) > eps {
		t.Errorf("H(0) = %v, want %v", h, c.DCGain())
	}
}
