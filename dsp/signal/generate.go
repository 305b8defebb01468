// Package signal draws the random inputs of a simulation: messages, symbol
// periods and channel noise.
package signal

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

// SymbolPeriodsMs lists the symbol periods, in milliseconds, that
// [Generator.SymbolPeriod] picks from.
var SymbolPeriodsMs = []float64{50, 10, 15, 20, 25, 30, 35, 40, 60, 70}

// Generator is a seeded source of random bits, periods and noise. It is not
// safe for concurrent use.
type Generator struct {
	seed uint64
	rng  *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes every draw of the generator reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// NewGenerator returns a generator seeded from the clock unless WithSeed is
// given.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{seed: uint64(time.Now().UnixNano())}
	for _, opt := range opts {
		opt(g)
	}
	g.rng = rand.New(rand.NewSource(g.seed))
	return g
}

// Seed returns the seed in use, so a clock-seeded run can be replayed.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Bits returns n fair random bits.
func (g *Generator) Bits(n int) ([]uint8, error) {
	if n < 0 {
		return nil, fmt.Errorf("signal: bit count must be >= 0: %d", n)
	}
	bits := make([]uint8, n)
	for i := range bits {
		bits[i] = uint8(g.rng.Uint32() & 1)
	}
	return bits, nil
}

// SymbolPeriod picks one of [SymbolPeriodsMs].
func (g *Generator) SymbolPeriod() float64 {
	return SymbolPeriodsMs[g.rng.Intn(len(SymbolPeriodsMs))]
}

// Gaussian returns n zero-mean normal samples with standard deviation std.
func (g *Generator) Gaussian(std float64, n int) ([]float64, error) {
	if !(std >= 0) || math.IsInf(std, 0) {
		return nil, fmt.Errorf("signal: noise std-dev must be finite and >= 0: %v", std)
	}
	if n < 0 {
		return nil, fmt.Errorf("signal: sample count must be >= 0: %d", n)
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = std * g.rng.NormFloat64()
	}
	return x, nil
}

// Normalize returns data scaled so its largest magnitude is peak. Silent
// input has no scale and fails with core.ErrNumericDegeneracy.
func Normalize(data []float64, peak float64) ([]float64, error) {
	if !(peak >= 0) {
		return nil, fmt.Errorf("signal: normalize peak must be >= 0: %v", peak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("signal: normalize input must not be empty")
	}
	m := core.MaxAbs(data)
	if m == 0 || math.IsNaN(m) {
		return nil, fmt.Errorf("%w: normalize peak is %v", core.ErrNumericDegeneracy, m)
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v * (peak / m)
	}
	return out, nil
}
