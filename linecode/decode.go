package linecode

import (
	"math"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

// Decode inverts [Encode] for symbol-level estimates, such as the per-symbol
// means of a received baseband. threshold is the decision level between the
// low and high symbol levels: 0 for signed levels, 0.5 for levels shifted to
// [0, 1]. HDBn marks are decided halfway between threshold and the mark
// level 1, so zeros and violation pulses both decode as 0.
//
// The number of symbols must be a multiple of the scheme's symbols per bit.
func Decode(symbols []float64, spec Spec, threshold float64) (Bits, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "threshold", threshold)
	}
	perBit := spec.Scheme.PerBit()
	if len(symbols)%perBit != 0 {
		return nil, core.NewStageError(stage, core.ErrInvalidInput, "symbols", len(symbols))
	}

	out := make(Bits, 0, len(symbols)/perBit)
	high := func(v float64) bool { return v > threshold }

	switch spec.Scheme {
	case NRZ, Unipolar:
		for _, v := range symbols {
			out = append(out, bit(high(v)))
		}
	case HDBN:
		mark := (threshold + 1) / 2
		for _, v := range symbols {
			out = append(out, bit(v > mark))
		}
	case RZ:
		for i := 0; i < len(symbols); i += 2 {
			out = append(out, bit(high(symbols[i])))
		}
	case Manchester:
		for i := 0; i < len(symbols); i += 2 {
			out = append(out, bit(symbols[i] < symbols[i+1]))
		}
	case Miller:
		for i := 0; i < len(symbols); i += 2 {
			out = append(out, bit(high(symbols[i]) != high(symbols[i+1])))
		}
	}

	return out, nil
}

func bit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
