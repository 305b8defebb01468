package spectrum

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// DefaultSegmentLength is the Welch segment length used when none is given.
const DefaultSegmentLength = 1024

// WelchOption configures [Welch].
type WelchOption func(*welchConfig)

type welchConfig struct {
	segment int
	overlap int // < 0 means segment/2
	window  window.Type
}

// WithSegmentLength sets the segment length. Signals shorter than the
// segment use a single segment spanning the whole signal.
func WithSegmentLength(n int) WelchOption {
	return func(c *welchConfig) { c.segment = n }
}

// WithOverlap sets the number of samples shared by consecutive segments.
// The default is half a segment.
func WithOverlap(n int) WelchOption {
	return func(c *welchConfig) { c.overlap = n }
}

// WithWindow selects the segment taper. The default is a periodic Hann window.
func WithWindow(t window.Type) WelchOption {
	return func(c *welchConfig) { c.window = t }
}

// Welch estimates the one-sided power spectral density of signal with
// Welch's averaged-periodogram method. Each segment is mean-removed, tapered,
// zero-padded to the next power of two and transformed. The result is scaled
// as a density (power per Hz), so integrating it over frequency yields the
// signal variance.
//
// It returns the bin frequencies in Hz and the matching PSD values.
func Welch(signal []float64, sampleRate float64, opts ...WelchOption) (freqs, psd []float64, err error) {
	cfg := welchConfig{segment: DefaultSegmentLength, overlap: -1, window: window.TypeHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if len(signal) == 0 {
		return nil, nil, ErrEmptyInput
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, nil, fmt.Errorf("spectrum: sample rate must be > 0: %v", sampleRate)
	}
	if cfg.segment < 1 {
		return nil, nil, fmt.Errorf("spectrum: segment length must be > 0: %d", cfg.segment)
	}

	segLen := min(cfg.segment, len(signal))
	overlap := cfg.overlap
	if overlap < 0 {
		overlap = segLen / 2
	}
	if overlap >= segLen {
		return nil, nil, fmt.Errorf("spectrum: overlap %d must be smaller than segment %d", overlap, segLen)
	}

	win := window.Generate(cfg.window, segLen, window.WithPeriodic())
	winPower := window.PowerSum(win)
	if winPower == 0 {
		return nil, nil, fmt.Errorf("%w: window has zero power", core.ErrNumericDegeneracy)
	}

	nfft := core.NextPowerOf2(segLen)
	nbins := nfft/2 + 1
	step := segLen - overlap
	segments := (len(signal) - overlap) / step

	psd = make([]float64, nbins)
	seg := make([]float64, segLen)
	for s := range segments {
		start := s * step
		detrend(seg, signal[start:start+segLen])
		vecmath.MulBlockInPlace(seg, win)

		bins, err := Transform(seg, nfft)
		if err != nil {
			return nil, nil, err
		}
		vecmath.AddBlockInPlace(psd, Power(bins[:nbins]))
	}

	scale := 1 / (sampleRate * winPower * float64(segments))
	vecmath.ScaleBlock(psd, psd, scale)
	// Fold negative frequencies onto positive ones; DC and Nyquist are unique.
	for k := 1; k < nbins-1; k++ {
		psd[k] *= 2
	}

	freqs = make([]float64, nbins)
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(nfft)
	}

	return freqs, psd, nil
}

// detrend copies src into dst with its mean removed.
func detrend(dst, src []float64) {
	var mean float64
	for _, v := range src {
		mean += v
	}
	mean /= float64(len(src))
	for i, v := range src {
		dst[i] = v - mean
	}
}
