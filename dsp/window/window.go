// Package window generates the tapers used by FIR design and spectral
// estimation.
package window

import (
	"fmt"
	"math"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeKaiser
)

// DefaultKaiserBeta is the Kaiser shape used by Generate unless WithBeta
// says otherwise.
const DefaultKaiserBeta = 1.0

func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	case TypeHamming:
		return "hamming"
	case TypeBlackman:
		return "blackman"
	case TypeKaiser:
		return "kaiser"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Option configures Generate.
type Option func(*options)

type options struct {
	beta     float64
	periodic bool
}

// WithBeta sets the Kaiser shape parameter. Negative values are ignored.
func WithBeta(beta float64) Option {
	return func(o *options) {
		if beta >= 0 {
			o.beta = beta
		}
	}
}

// WithPeriodic generates the periodic form used to frame FFT segments: the
// window of length n+1 with its last sample dropped.
func WithPeriodic() Option {
	return func(o *options) { o.periodic = true }
}

// Generate returns n samples of window t, nil for n <= 0. Unknown types
// yield the rectangular window.
func Generate(t Type, n int, opts ...Option) []float64 {
	if n <= 0 {
		return nil
	}
	o := options{beta: DefaultKaiserBeta}
	for _, opt := range opts {
		opt(&o)
	}

	span := float64(n - 1)
	if o.periodic {
		span = float64(n)
	}

	w := make([]float64, n)
	for i := range w {
		// x runs over [0, 1] across the window; a single sample sits at the
		// center.
		x := 0.5
		if span > 0 {
			x = float64(i) / span
		}
		w[i] = at(t, x, o.beta)
	}
	return w
}

// Kaiser returns the symmetric Kaiser window of n samples.
func Kaiser(n int, beta float64) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("window: size must be > 0: %d", n)
	}
	if !(beta >= 0) {
		return nil, fmt.Errorf("window: kaiser beta must be >= 0: %v", beta)
	}
	return Generate(TypeKaiser, n, WithBeta(beta)), nil
}

// PowerSum returns the sum of squared coefficients, the normalization of a
// density-scaled spectrum.
func PowerSum(w []float64) float64 {
	var s float64
	for _, v := range w {
		s += v * v
	}
	return s
}

func at(t Type, x, beta float64) float64 {
	c := math.Cos(2 * math.Pi * x)
	switch t {
	case TypeHann:
		return 0.5 - 0.5*c
	case TypeHamming:
		return 0.54 - 0.46*c
	case TypeBlackman:
		return 0.42 - 0.5*c + 0.08*math.Cos(4*math.Pi*x)
	case TypeKaiser:
		r := 2*x - 1
		return besselI0(beta*math.Sqrt(max(0, 1-r*r))) / besselI0(beta)
	default:
		return 1
	}
}

// besselI0 sums the power series of the modified Bessel function of the
// first kind, order zero, until the terms stop contributing.
func besselI0(x float64) float64 {
	q := x * x / 4
	sum, term := 1.0, 1.0
	for k := 1.0; k < 500; k++ {
		term *= q / (k * k)
		sum += term
		if term < sum*1e-16 {
			break
		}
	}
	return sum
}
