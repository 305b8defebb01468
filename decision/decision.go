// Package decision turns a baseband estimate back into bits by averaging
// it over symbol windows and comparing against a threshold.
package decision

import (
	"math"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/pulse"
	timestats "github.com/cwbudde/algo-txchain/stats/time"
)

const stage = "decision"

// Decision thresholds for the two baseband conventions.
const (
	// SignedThreshold separates levels -1 and +1.
	SignedThreshold = 0.0
	// UnipolarThreshold separates levels 0 and 1.
	UnipolarThreshold = 0.5
)

// Config parameterizes [Decode]. The threshold must match the level
// convention of the baseband; it is never inferred from the data.
type Config struct {
	Threshold float64
	// Offset is the index of the first sample of the first symbol, usually
	// the Delay of the baseband.
	Offset int
}

// Decode partitions baseband, starting at cfg.Offset, into windows of
// round(periodSec*SampleRate) samples and emits 1 for every window whose mean
// exceeds cfg.Threshold. A trailing window shorter than a full period is
// decoded from the samples that remain. An empty baseband yields no bits.
func Decode(baseband pulse.Waveform, periodSec float64, cfg Config) (linecode.Bits, error) {
	fs := baseband.SampleRate
	if !(fs > 0) || math.IsInf(fs, 0) {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", fs)
	}
	if !(periodSec > 0) || math.IsInf(periodSec, 0) {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "period", periodSec)
	}
	if math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "threshold", cfg.Threshold)
	}
	if cfg.Offset < 0 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "offset", cfg.Offset)
	}
	size := int(math.Round(periodSec * fs))
	if size < 1 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "window", size)
	}

	bits := linecode.Bits{}
	for start := cfg.Offset; start < len(baseband.Samples); start += size {
		end := min(start+size, len(baseband.Samples))
		if timestats.DC(baseband.Samples[start:end]) > cfg.Threshold {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
	}
	return bits, nil
}

// Sample returns per-symbol means aligned to the layout of pulse.Shape: one
// value per bit when perBit is 1, two (split at pulse.HalfSplit) when it is
// 2. Only complete bits after offset are sampled. The result feeds
// linecode.Decode.
func Sample(baseband pulse.Waveform, samplesPerBit, perBit, offset int) ([]float64, error) {
	if perBit != 1 && perBit != 2 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "per_bit", perBit)
	}
	if samplesPerBit < perBit {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "samples_per_bit", samplesPerBit)
	}
	if offset < 0 {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "offset", offset)
	}

	n := max(len(baseband.Samples)-offset, 0) / samplesPerBit
	out := make([]float64, 0, n*perBit)
	half := pulse.HalfSplit(samplesPerBit)
	for b := range n {
		bit := baseband.Samples[offset+b*samplesPerBit : offset+(b+1)*samplesPerBit]
		if perBit == 1 {
			out = append(out, timestats.DC(bit))
			continue
		}
		out = append(out, timestats.DC(bit[:half]), timestats.DC(bit[half:]))
	}
	return out, nil
}

// DecodeLineCode samples baseband with [Sample] and inverts the line code
// with linecode.Decode.
func DecodeLineCode(baseband pulse.Waveform, samplesPerBit int, spec linecode.Spec, threshold float64, offset int) (linecode.Bits, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	symbols, err := Sample(baseband, samplesPerBit, spec.Scheme.PerBit(), offset)
	if err != nil {
		return nil, err
	}
	return linecode.Decode(symbols, spec, threshold)
}
