// Package testutil provides deterministic signals and tolerance checks for
// tests.
package testutil

import (
	"math"

	"golang.org/x/exp/rand"
)

// Tone returns amplitude*cos(2*pi*freqHz*n/sampleRate) for n in [0, length).
// Carriers start at phase 0, so a tone is what a modulator emits for a
// constant baseband of 1.
func Tone(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Cos(step*float64(i))
	}
	return out
}

// Sine is Tone shifted by a quarter period, starting at 0.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Held repeats every level for samplesPerLevel samples, the way a
// rectangular pulse shaper holds a symbol.
func Held(levels []float64, samplesPerLevel int) []float64 {
	out := make([]float64, 0, len(levels)*max(samplesPerLevel, 0))
	for _, v := range levels {
		for range samplesPerLevel {
			out = append(out, v)
		}
	}
	return out
}

// Gaussian returns length draws of zero-mean Gaussian noise with standard
// deviation std, reproducible for a given seed.
func Gaussian(seed uint64, std float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = std * rng.NormFloat64()
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}
