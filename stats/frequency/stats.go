package frequency

import (
	"math"
)

// Stats summarizes a one-sided spectrum, typically the power spectral
// density returned by spectrum.Welch.
//
//nolint:revive
type Stats struct {
	BinCount      int
	Max           float64
	MaxBin        int
	PeakFrequency float64 // Hz
	Peak_dB       float64 // 10*log10(Max)
	TotalPower    float64 // sum of bins times bin width
	// Spectral shape descriptors
	Centroid  float64 // Hz
	Spread    float64 // Hz
	Flatness  float64 // Wiener entropy, 0..1
	Rolloff   float64 // frequency below which 85% of the power lies (Hz)
	Bandwidth float64 // half-power bandwidth around the peak (Hz)
}

// DefaultRolloff is the power fraction used by [Calculate] for Stats.Rolloff.
const DefaultRolloff = 0.85

// powerToDB converts a linear power value to decibels.
// Returns -Inf for zero values.
func powerToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(v)
}

// binFreq returns the frequency in Hz of a given bin index.
// fftSize = 2 * (binCount - 1).
func binFreq(i int, sampleRate float64, binCount int) float64 {
	return float64(i) * sampleRate / float64(2*(binCount-1))
}

// Calculate summarizes a one-sided power spectrum (linear scale, NOT dB).
//
// The psd slice represents bins from 0 (DC) to Nyquist, length
// FFTSize/2 + 1, as produced by spectrum.Welch. The frequency of bin i is:
//
//	f_i = i * sampleRate / (2 * (len(psd) - 1))
func Calculate(psd []float64, sampleRate float64) Stats {
	n := len(psd)
	if n < 2 {
		s := Stats{BinCount: n, Peak_dB: math.Inf(-1)}
		if n == 1 {
			s.Max = psd[0]
			s.Peak_dB = powerToDB(psd[0])
		}
		return s
	}

	var s Stats
	s.BinCount = n
	s.Max = psd[0]

	var sum float64
	for i, v := range psd {
		sum += v
		if v > s.Max {
			s.Max = v
			s.MaxBin = i
		}
	}

	s.PeakFrequency = binFreq(s.MaxBin, sampleRate, n)
	s.Peak_dB = powerToDB(s.Max)
	s.TotalPower = sum * sampleRate / float64(2*(n-1))

	s.Centroid = centroid(psd, sampleRate, sum)
	s.Spread = spread(psd, sampleRate, s.Centroid, sum)
	s.Flatness = flatness(psd)
	s.Rolloff = rolloff(psd, sampleRate, DefaultRolloff, sum)
	s.Bandwidth = bandwidth(psd, sampleRate, s.MaxBin)

	return s
}

// Centroid returns the power-weighted mean frequency in Hz.
//
//	centroid = sum(f_i * P_i) / sum(P_i)
func Centroid(psd []float64, sampleRate float64) float64 {
	return centroid(psd, sampleRate, sum(psd))
}

func centroid(psd []float64, sampleRate, total float64) float64 {
	n := len(psd)
	if n < 2 || total == 0 {
		return 0
	}
	var weighted float64
	for i, v := range psd {
		weighted += binFreq(i, sampleRate, n) * v
	}
	return weighted / total
}

// spread is the power-weighted standard deviation around the centroid.
func spread(psd []float64, sampleRate, cent, total float64) float64 {
	n := len(psd)
	if n < 2 || total == 0 {
		return 0
	}
	var weighted float64
	for i, v := range psd {
		diff := binFreq(i, sampleRate, n) - cent
		weighted += diff * diff * v
	}
	return math.Sqrt(weighted / total)
}

// Flatness returns the spectral flatness (Wiener entropy) in the range 0..1:
// the geometric mean of bins 1..N-1 divided by their arithmetic mean. The DC
// bin is excluded. Any zero bin makes the flatness 0.
func Flatness(psd []float64) float64 {
	return flatness(psd)
}

func flatness(psd []float64) float64 {
	n := len(psd)
	if n < 2 {
		return 0
	}

	var sumLin, sumLog float64
	for _, v := range psd[1:] {
		if v <= 0 {
			return 0
		}
		sumLin += v
		sumLog += math.Log(v)
	}

	nBins := float64(n - 1)
	return math.Exp(sumLog/nBins) / (sumLin / nBins)
}

// Rolloff returns the frequency below which fraction (0..1) of the total
// power lies.
func Rolloff(psd []float64, sampleRate, fraction float64) float64 {
	return rolloff(psd, sampleRate, fraction, sum(psd))
}

func rolloff(psd []float64, sampleRate, fraction, total float64) float64 {
	n := len(psd)
	if n < 2 || total == 0 {
		return 0
	}
	threshold := fraction * total
	var cum float64
	for i, v := range psd {
		cum += v
		if cum >= threshold {
			return binFreq(i, sampleRate, n)
		}
	}
	return binFreq(n-1, sampleRate, n)
}

// Bandwidth returns the half-power (-3 dB) bandwidth around the largest bin
// in Hz. Crossings are linearly interpolated between bins.
func Bandwidth(psd []float64, sampleRate float64) float64 {
	peak := 0
	for i, v := range psd {
		if v > psd[peak] {
			peak = i
		}
	}
	return bandwidth(psd, sampleRate, peak)
}

func bandwidth(psd []float64, sampleRate float64, peakBin int) float64 {
	n := len(psd)
	if n < 2 || psd[peakBin] <= 0 {
		return 0
	}

	threshold := psd[peakBin] / 2

	lower := binFreq(0, sampleRate, n)
	for i := peakBin; i >= 1; i-- {
		if psd[i-1] <= threshold && psd[i] > threshold {
			lower = interpFreq(i-1, i, psd[i-1], psd[i], threshold, sampleRate, n)
			break
		}
	}

	upper := binFreq(n-1, sampleRate, n)
	for i := peakBin; i < n-1; i++ {
		if psd[i+1] <= threshold && psd[i] > threshold {
			upper = interpFreq(i, i+1, psd[i], psd[i+1], threshold, sampleRate, n)
			break
		}
	}

	return math.Max(upper-lower, 0)
}

// interpFreq linearly interpolates between two bins to find the frequency
// where the spectrum crosses threshold.
func interpFreq(binLow, binHigh int, low, high, threshold, sampleRate float64, binCount int) float64 {
	fLow := binFreq(binLow, sampleRate, binCount)
	fHigh := binFreq(binHigh, sampleRate, binCount)

	denom := high - low
	if denom == 0 {
		return (fLow + fHigh) / 2
	}
	t := (threshold - low) / denom
	return fLow + t*(fHigh-fLow)
}

func sum(psd []float64) float64 {
	var s float64
	for _, v := range psd {
		s += v
	}
	return s
}
