package demod

import (
	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/spectrum"
	"github.com/cwbudde/algo-txchain/pulse"
)

// DetectCarrierFrequency returns the frequency of the largest FFT magnitude
// over the positive-frequency bins of w. For a pure tone the result lies
// within one bin (SampleRate/Len) of its frequency.
//
// There is no fallback for a flat or noise-dominated spectrum: the largest
// bin is returned regardless.
func DetectCarrierFrequency(w pulse.Waveform) (float64, error) {
	if err := checkSampleRate(w.SampleRate); err != nil {
		return 0, err
	}
	if len(w.Samples) < 2 {
		return 0, core.NewStageError(stage, core.ErrInvalidInput, "samples", len(w.Samples))
	}

	f, err := spectrum.PeakFrequency(w.Samples, w.SampleRate)
	if err != nil {
		return 0, core.NewStageError(stage, err, "", nil)
	}
	return f, nil
}
