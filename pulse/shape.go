package pulse

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/filter/fir"
	"github.com/cwbudde/algo-txchain/dsp/signal"
	"github.com/cwbudde/algo-txchain/linecode"
)

const stage = "pulse"

// Mode selects the pulse shape.
type Mode int

const (
	// Rectangular holds every symbol constant for its duration.
	Rectangular Mode = iota
	// Nyquist filters the held signal with a raised-cosine FIR.
	Nyquist
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case Rectangular:
		return "rectangular"
	case Nyquist:
		return "nyquist"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps "rectangular" or "nyquist" (case-insensitive) to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangular", "rect":
		return Rectangular, nil
	case "nyquist", "raised-cosine":
		return Nyquist, nil
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "mode", name)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Config parameterizes [Shape]. Taps, RollOff and Beta only apply to
// Nyquist shaping.
type Config struct {
	Mode    Mode
	Taps    int
	RollOff float64
	Beta    float64
}

// DefaultConfig returns rectangular shaping with the Nyquist defaults
// (101 taps, roll-off 0.25, Kaiser beta 5) preset.
func DefaultConfig() Config {
	return Config{
		Mode:    Rectangular,
		Taps:    101,
		RollOff: 0.25,
		Beta:    5,
	}
}

// SamplesPerSymbol returns round(periodMs * sampleRate / 1000).
func SamplesPerSymbol(periodMs, sampleRate float64) int {
	return int(math.Round(periodMs * sampleRate / 1000))
}

// HalfSplit returns the length of the first half-symbol of a symbol that is
// samplesPerSymbol samples long. The second half takes the remainder.
func HalfSplit(samplesPerSymbol int) int {
	return samplesPerSymbol / 2
}

// Shape renders symbols as a waveform sampled at sampleRate with a symbol
// period of periodMs milliseconds.
//
// In Nyquist mode the output is peak-normalized to 1 and extended by the
// filter's group delay so the last symbol is fully flushed; Waveform.Delay
// records that group delay.
func Shape(symbols linecode.Symbols, periodMs, sampleRate float64, cfg Config) (Waveform, error) {
	if !(periodMs > 0) || math.IsInf(periodMs, 0) {
		return Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "period_ms", periodMs)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", sampleRate)
	}
	perBit := max(symbols.PerBit, 1)
	spb := SamplesPerSymbol(periodMs, sampleRate)
	if spb < 1 || spb < perBit {
		return Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "samples_per_symbol", spb)
	}

	held := hold(symbols.Values, perBit, spb)
	w := Waveform{Samples: held, SampleRate: sampleRate}

	switch cfg.Mode {
	case Rectangular:
		return w, nil
	case Nyquist:
		return shapeNyquist(w, spb, cfg)
	default:
		return Waveform{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "mode", int(cfg.Mode))
	}
}

// hold repeats every symbol for its share of spb samples.
func hold(values []float64, perBit, spb int) []float64 {
	nbits := len(values) / perBit
	out := make([]float64, 0, nbits*spb)
	for b := range nbits {
		if perBit == 1 {
			for range spb {
				out = append(out, values[b])
			}
			continue
		}
		half := HalfSplit(spb)
		for range half {
			out = append(out, values[2*b])
		}
		for range spb - half {
			out = append(out, values[2*b+1])
		}
	}
	return out
}

func shapeNyquist(w Waveform, spb int, cfg Config) (Waveform, error) {
	taps, err := fir.RaisedCosine(cfg.Taps, float64(spb), cfg.RollOff, cfg.Beta)
	if err != nil {
		return Waveform{}, core.NewStageError(stage, fmt.Errorf("%w: %w", core.ErrInvalidConfiguration, err), "taps", cfg.Taps)
	}
	f := fir.New(taps)
	delay := f.GroupDelay()
	if len(w.Samples) == 0 {
		return Waveform{Samples: []float64{}, SampleRate: w.SampleRate, Delay: delay}, nil
	}

	// delay trailing zeros flush the tail of the last symbol.
	filtered := make([]float64, len(w.Samples)+delay)
	for i := range filtered {
		var x float64
		if i < len(w.Samples) {
			x = w.Samples[i]
		}
		filtered[i] = f.ProcessSample(x)
	}

	normalized, err := signal.Normalize(filtered, 1)
	if err != nil {
		return Waveform{}, core.NewStageError(stage, core.ErrNumericDegeneracy, "peak", core.MaxAbs(filtered))
	}
	return Waveform{Samples: normalized, SampleRate: w.SampleRate, Delay: delay}, nil
}
