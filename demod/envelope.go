package demod

import (
	"math"

	"github.com/cwbudde/algo-txchain/dsp/conv"
	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/pulse"
)

// EnvelopeDetect rectifies w, smooths it with a cfg.Smoothing-wide moving
// average when cfg.Smoothing > 1 and, with cfg.Binarize, maps samples at or
// above cfg.Threshold to 1 and the rest to 0.
func EnvelopeDetect(w pulse.Waveform, cfg Config) (pulse.Waveform, error) {
	if cfg.Smoothing < 0 {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "smoothing", cfg.Smoothing)
	}
	if cfg.Binarize && (math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0)) {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "threshold", cfg.Threshold)
	}

	env := make([]float64, len(w.Samples))
	for i, v := range w.Samples {
		env[i] = math.Abs(v)
	}

	if cfg.Smoothing > 1 {
		smoothed, err := conv.MovingAverage(env, cfg.Smoothing)
		if err != nil {
			return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "smoothing", cfg.Smoothing)
		}
		env = smoothed
	}

	if cfg.Binarize {
		for i, v := range env {
			if v >= cfg.Threshold {
				env[i] = 1
			} else {
				env[i] = 0
			}
		}
	}

	return w.With(env), nil
}
