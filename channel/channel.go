// Package channel models the transmission medium as additive white Gaussian
// noise.
package channel

import (
	"math"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/signal"
	"github.com/cwbudde/algo-txchain/pulse"
	timestats "github.com/cwbudde/algo-txchain/stats/time"
)

const stage = "channel"

type config struct {
	seed   uint64
	seeded bool
}

// Option configures AddNoise.
type Option func(*config)

// WithSeed makes the noise realization reproducible. Without it every call
// draws from a clock-seeded source.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// AddNoise returns w plus i.i.d. zero-mean Gaussian noise with standard
// deviation level. A level of 0 returns an exact copy of w.
func AddNoise(w pulse.Waveform, level float64, opts ...Option) (pulse.Waveform, error) {
	if !(level >= 0) || math.IsInf(level, 0) {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "noise_level", level)
	}
	if level == 0 {
		return w.Clone(), nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var genOpts []signal.Option
	if cfg.seeded {
		genOpts = append(genOpts, signal.WithSeed(cfg.seed))
	}
	gen := signal.NewGenerator(genOpts...)

	noise, err := gen.Gaussian(level, len(w.Samples))
	if err != nil {
		return pulse.Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "noise_level", level)
	}
	for i, v := range w.Samples {
		noise[i] += v
	}
	return w.With(noise), nil
}

// SNR reports the measured signal-to-noise ratio in dB between a clean
// waveform and its noisy copy.
func SNR(clean, noisy pulse.Waveform) float64 {
	return timestats.SNR(clean.Samples, noisy.Samples)
}
