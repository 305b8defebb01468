package testutil

import (
	"fmt"
	"math"
	"testing"
)

// recorder captures the first failure instead of stopping the test.
type recorder struct {
	testing.TB
	failure string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	if r.failure == "" {
		r.failure = fmt.Sprintf(format, args...)
	}
}

func TestRequireClose(t *testing.T) {
	tests := []struct {
		name      string
		got, want []float64
		fails     bool
	}{
		{"within tolerance", []float64{1, 2.0005}, []float64{1, 2}, false},
		{"beyond tolerance", []float64{1, 2.1}, []float64{1, 2}, true},
		{"length", []float64{1}, []float64{1, 2}, true},
		{"nan", []float64{math.NaN()}, []float64{0}, true},
		{"both empty", nil, []float64{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{TB: t}
			RequireClose(r, tt.got, tt.want, 1e-3)
			if (r.failure != "") != tt.fails {
				t.Fatalf("failure = %q, want failing=%v", r.failure, tt.fails)
			}
		})
	}
}

func TestRequireFinite(t *testing.T) {
	r := &recorder{TB: t}
	RequireFinite(r, []float64{0, -1, 3})
	if r.failure != "" {
		t.Fatalf("finite samples rejected: %s", r.failure)
	}
	RequireFinite(r, []float64{0, math.Inf(-1)})
	if r.failure != "sample 1 is -Inf" {
		t.Fatalf("failure = %q", r.failure)
	}
}
