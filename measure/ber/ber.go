// Package ber measures the bit error rate of the transmission chain over a
// range of channel noise levels.
package ber

import (
	"context"
	"errors"
	"math"
	"runtime"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/signal"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/pipeline"
)

const stage = "ber"

// DefaultBitsPerTrial is the message length used when Config.BitsPerTrial
// is zero.
const DefaultBitsPerTrial = 100

// Count returns the number of bit errors between the sent and the recovered
// sequence. Missing or extra bits count as errors.
func Count(want, got linecode.Bits) int {
	return want.Errors(got)
}

// Rate returns Count divided by the longer of the two lengths, 0 when both
// are empty.
func Rate(want, got linecode.Bits) float64 {
	n := max(len(want), len(got))
	if n == 0 {
		return 0
	}
	return float64(Count(want, got)) / float64(n)
}

// Config parameterizes [Sweep].
type Config struct {
	// Pipeline is the chain under test. Its noise level and seed are
	// overridden per trial.
	Pipeline pipeline.Config `yaml:"pipeline" json:"pipeline"`
	// BitsPerTrial is the random message length of every trial.
	BitsPerTrial int `yaml:"bits_per_trial" json:"bits_per_trial"`
	// Seed derives the message and noise seed of every trial. 0 seeds from
	// the clock.
	Seed uint64 `yaml:"seed" json:"seed"`
	// Workers bounds the trials that run at once. 0 means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`
}

// Point is the aggregate of all trials at one noise level.
type Point struct {
	NoiseLevel float64 `json:"noise_level"`
	Trials     int     `json:"trials"`
	Bits       int     `json:"bits"`
	Errors     int     `json:"errors"`
	Rate       float64 `json:"rate"`
	// SNR is the mean measured channel SNR in dB over the decoded trials.
	SNR float64 `json:"snr_db"`
	// Lost counts trials that could not be decoded at all, for example when
	// clock recovery found no events. All their bits count as errors.
	Lost int `json:"lost"`
}

type trial struct {
	bits   int
	errors int
	snr    float64
	lost   bool
}

// Sweep runs trials independent transmissions at every noise level, each
// with its own random message and noise seed, and returns one Point per
// level in input order. Trials run concurrently.
//
// A trial that fails with core.ErrInsufficientSignal is counted as lost;
// any other failure aborts the sweep.
func Sweep(ctx context.Context, cfg Config, levels []float64, trials int) ([]Point, error) {
	if trials < 1 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "trials", trials)
	}
	bitsPerTrial := cfg.BitsPerTrial
	if bitsPerTrial == 0 {
		bitsPerTrial = DefaultBitsPerTrial
	}
	if bitsPerTrial < 1 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "bits_per_trial", bitsPerTrial)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	base := cfg.Seed
	if base == 0 {
		base = signal.NewGenerator().Seed()
	}

	results := make([][]trial, len(levels))
	for i := range results {
		results[i] = make([]trial, trials)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for li, level := range levels {
		for ti := range trials {
			// Trial seeds are distinct and never 0.
			seed := base + uint64(li*trials+ti) + 1
			g.Go(func() error {
				r, err := runTrial(ctx, cfg.Pipeline, level, seed, bitsPerTrial)
				if err != nil {
					return err
				}
				results[li][ti] = r
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]Point, len(levels))
	for li, level := range levels {
		p := Point{NoiseLevel: level, Trials: trials, SNR: math.NaN()}
		var snrSum float64
		var snrCount int
		for _, r := range results[li] {
			p.Bits += r.bits
			p.Errors += r.errors
			if r.lost {
				p.Lost++
				continue
			}
			if !math.IsNaN(r.snr) && !math.IsInf(r.snr, 0) {
				snrSum += r.snr
				snrCount++
			}
		}
		if p.Bits > 0 {
			p.Rate = float64(p.Errors) / float64(p.Bits)
		}
		if snrCount > 0 {
			p.SNR = snrSum / float64(snrCount)
		}
		glog.V(1).Infof("ber: noise %.4f: %d/%d errors (%.2e), %d lost", level, p.Errors, p.Bits, p.Rate, p.Lost)
		points[li] = p
	}
	return points, nil
}

func runTrial(ctx context.Context, cfg pipeline.Config, level float64, seed uint64, n int) (trial, error) {
	bits, err := signal.NewGenerator(signal.WithSeed(seed)).Bits(n)
	if err != nil {
		return trial{}, err
	}
	cfg.Channel.NoiseLevel = level
	cfg.Channel.Seed = seed

	res, err := pipeline.Run(ctx, bits, cfg)
	if errors.Is(err, core.ErrInsufficientSignal) {
		glog.V(2).Infof("ber: trial with seed %d lost: %v", seed, err)
		return trial{bits: n, errors: n, lost: true}, nil
	}
	if err != nil {
		return trial{}, err
	}
	return trial{bits: n, errors: res.BitErrors, snr: res.SNR}, nil
}
