package biquad

// Chain is a cascade of sections run in series.
type Chain struct {
	sections []*Section
}

// NewChain returns a cascade at rest with one section per coefficient set.
func NewChain(coeffs []Coefficients) *Chain {
	c := &Chain{sections: make([]*Section, 0, len(coeffs))}
	for _, cf := range coeffs {
		c.sections = append(c.sections, NewSection(cf))
	}
	return c
}

// ProcessSample runs x through every section.
func (c *Chain) ProcessSample(x float64) float64 {
	for _, s := range c.sections {
		x = s.ProcessSample(x)
	}
	return x
}

// ProcessBlock filters buf in place, one section at a time.
func (c *Chain) ProcessBlock(buf []float64) {
	for _, s := range c.sections {
		s.ProcessBlock(buf)
	}
}

// Settle puts the cascade into the steady state for a constant input u.
func (c *Chain) Settle(u float64) {
	for _, s := range c.sections {
		u = s.Settle(u)
	}
}

// Reset returns every section to rest.
func (c *Chain) Reset() {
	for _, s := range c.sections {
		s.Reset()
	}
}

// Order is the filter order; first-order sections count once.
func (c *Chain) Order() int {
	n := 0
	for _, s := range c.sections {
		n += 2
		if s.B2 == 0 && s.A2 == 0 {
			n--
		}
	}
	return n
}

// Response evaluates the cascade at freqHz for sample rate fs.
func (c *Chain) Response(freqHz, fs float64) complex128 {
	h := complex(1, 0)
	for _, s := range c.sections {
		h *= s.Response(freqHz, fs)
	}
	return h
}
