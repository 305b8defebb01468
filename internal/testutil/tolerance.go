package testutil

import (
	"math"
	"testing"
)

// RequireClose stops t at the first sample where got and want differ by more
// than tol, or when their lengths differ.
func RequireClose(t testing.TB, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
		return
	}
	for i, w := range want {
		if d := math.Abs(got[i] - w); !(d <= tol) {
			t.Fatalf("sample %d: got %v, want %v (|diff| %g > %g)", i, got[i], w, d, tol)
			return
		}
	}
}

// RequireFinite stops t at the first NaN or infinite sample.
func RequireFinite(t testing.TB, samples []float64) {
	t.Helper()
	for i, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d is %v", i, v)
			return
		}
	}
}
