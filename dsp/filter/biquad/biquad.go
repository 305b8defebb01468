package biquad

import (
	"math"
	"math/cmplx"
)

// Coefficients of one second-order section with a0 normalized to 1:
//
//	H(z) = (B0 + B1 z^-1 + B2 z^-2) / (1 + A1 z^-1 + A2 z^-2)
//
// A first-order section has B2 = A2 = 0.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// DCGain is H(1).
func (c Coefficients) DCGain() float64 {
	return (c.B0 + c.B1 + c.B2) / (1 + c.A1 + c.A2)
}

// Response evaluates H at freqHz for sample rate fs.
func (c Coefficients) Response(freqHz, fs float64) complex128 {
	z1 := cmplx.Exp(complex(0, -2*math.Pi*freqHz/fs))
	z2 := z1 * z1
	num := complex(c.B0, 0) + complex(c.B1, 0)*z1 + complex(c.B2, 0)*z2
	den := 1 + complex(c.A1, 0)*z1 + complex(c.A2, 0)*z2
	return num / den
}

// Stable reports whether the denominator lies inside the stability triangle
// |A2| < 1, |A1| < 1 + A2, i.e. both poles are inside the unit circle.
func (c Coefficients) Stable() bool {
	return math.Abs(c.A2) < 1 && math.Abs(c.A1) < 1+c.A2
}

// Section runs one set of Coefficients in transposed direct form II.
type Section struct {
	Coefficients

	s1, s2 float64
}

// NewSection returns a section at rest.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters x.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.s1
	s.s1 = s.B1*x - s.A1*y + s.s2
	s.s2 = s.B2*x - s.A2*y
	return y
}

// ProcessBlock filters buf in place.
func (s *Section) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = s.ProcessSample(x)
	}
}

// Settle loads the state reached after a constant input u has been applied
// forever and returns the output for it. Filtering a block that starts at u
// then shows no start-up transient.
func (s *Section) Settle(u float64) float64 {
	y := s.DCGain() * u
	s.s2 = s.B2*u - s.A2*y
	s.s1 = s.B1*u - s.A1*y + s.s2
	return y
}

// Reset returns the section to rest.
func (s *Section) Reset() {
	s.s1, s.s2 = 0, 0
}
