// Package clock estimates the symbol period of a baseband waveform from the
// spacing of its peaks or level transitions.
package clock

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/pulse"
)

const stage = "clock"

// DefaultFraction is the default detection level relative to the signal peak.
const DefaultFraction = 0.5

// Detector selects which events mark symbol boundaries.
type Detector int

const (
	// Peaks detects local maxima of |x| (plateaus count once, at their
	// center) that reach Fraction times max|x|.
	Peaks Detector = iota
	// Transitions detects level changes with hysteresis around the midpoint
	// of the signal range, the band being Fraction times the half range.
	Transitions
)

// String returns the detector name.
func (d Detector) String() string {
	switch d {
	case Peaks:
		return "peaks"
	case Transitions:
		return "transitions"
	default:
		return fmt.Sprintf("detector(%d)", int(d))
	}
}

// ParseDetector maps "peaks" or "transitions" (case-insensitive) to a
// Detector.
func ParseDetector(name string) (Detector, error) {
	for _, d := range []Detector{Peaks, Transitions} {
		if strings.EqualFold(strings.TrimSpace(name), d.String()) {
			return d, nil
		}
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "detector", name)
}

// MarshalText implements encoding.TextMarshaler.
func (d Detector) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Detector) UnmarshalText(text []byte) error {
	v, err := ParseDetector(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Reducer collapses the event spacings into one period.
type Reducer int

const (
	// Mean averages the spacings.
	Mean Reducer = iota
	// Median takes the middle spacing.
	Median
	// Min takes the shortest spacing. For line codes with runs of equal
	// bits this is the symbol period as long as one isolated bit occurs.
	Min
)

// String returns the reducer name.
func (r Reducer) String() string {
	switch r {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Min:
		return "min"
	default:
		return fmt.Sprintf("reducer(%d)", int(r))
	}
}

// ParseReducer maps "mean", "median" or "min" (case-insensitive) to a
// Reducer.
func ParseReducer(name string) (Reducer, error) {
	for _, r := range []Reducer{Mean, Median, Min} {
		if strings.EqualFold(strings.TrimSpace(name), r.String()) {
			return r, nil
		}
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "reducer", name)
}

// MarshalText implements encoding.TextMarshaler.
func (r Reducer) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reducer) UnmarshalText(text []byte) error {
	v, err := ParseReducer(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type config struct {
	detector Detector
	reducer  Reducer
	fraction float64
}

// Option configures EstimatePeriod.
type Option func(*config)

// WithDetector selects the event detector. The default is Peaks.
func WithDetector(d Detector) Option {
	return func(c *config) { c.detector = d }
}

// WithReducer selects how spacings are reduced. The default is Mean.
func WithReducer(r Reducer) Option {
	return func(c *config) { c.reducer = r }
}

// WithFraction sets the detection level in (0, 1].
func WithFraction(f float64) Option {
	return func(c *config) { c.fraction = f }
}

// Estimate is the outcome of clock recovery.
type Estimate struct {
	// Period is the estimated symbol period in seconds. Zero unless OK.
	Period float64
	// Events holds the sample indices of the detected events.
	Events []int
	// OK is false when fewer than two events were found.
	OK bool
}

// Err returns core.ErrInsufficientSignal, wrapped with the event count, when
// the estimate is not usable.
func (e Estimate) Err() error {
	if e.OK {
		return nil
	}
	return core.NewStageError(stage, core.ErrInsufficientSignal, "events", len(e.Events))
}

// EstimatePeriod detects events in baseband and reduces the spacing of
// consecutive events to a period. Fewer than two events is not an error: the
// returned Estimate has OK set to false.
func EstimatePeriod(baseband pulse.Waveform, opts ...Option) (Estimate, error) {
	cfg := config{detector: Peaks, reducer: Mean, fraction: DefaultFraction}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fs := baseband.SampleRate
	if !(fs > 0) || math.IsInf(fs, 0) {
		return Estimate{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", fs)
	}
	if !(cfg.fraction > 0) || cfg.fraction > 1 {
		return Estimate{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "fraction", cfg.fraction)
	}

	var events []int
	switch cfg.detector {
	case Peaks:
		events = peaks(baseband.Samples, cfg.fraction)
	case Transitions:
		events = transitions(baseband.Samples, cfg.fraction)
	default:
		return Estimate{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "detector", int(cfg.detector))
	}

	est := Estimate{Events: events}
	if len(events) < 2 {
		return est, nil
	}

	spacings := make([]float64, len(events)-1)
	for i := range spacings {
		spacings[i] = float64(events[i+1] - events[i])
	}

	var samples float64
	switch cfg.reducer {
	case Mean:
		for _, d := range spacings {
			samples += d
		}
		samples /= float64(len(spacings))
	case Median:
		slices.Sort(spacings)
		mid := len(spacings) / 2
		samples = spacings[mid]
		if len(spacings)%2 == 0 {
			samples = (spacings[mid-1] + spacings[mid]) / 2
		}
	case Min:
		samples = slices.Min(spacings)
	default:
		return Estimate{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "reducer", int(cfg.reducer))
	}

	est.Period = samples / fs
	est.OK = true
	return est, nil
}

// peaks returns local maxima of |x| at or above fraction*max|x|. A sample
// needs a strictly lower neighbour on each side; a flat top counts once at
// its center. The first and last samples are never peaks.
func peaks(x []float64, fraction float64) []int {
	n := len(x)
	if n < 3 {
		return nil
	}
	mag := make([]float64, n)
	for i, v := range x {
		mag[i] = math.Abs(v)
	}
	height := fraction * core.MaxAbs(x)

	var out []int
	for i := 1; i < n-1; i++ {
		if mag[i-1] >= mag[i] {
			continue
		}
		ahead := i + 1
		for ahead < n-1 && mag[ahead] == mag[i] {
			ahead++
		}
		if mag[ahead] < mag[i] {
			if mag[i] >= height && mag[i] > 0 {
				out = append(out, (i+ahead-1)/2)
			}
			i = ahead
		}
	}
	return out
}

// transitions returns the indices at which x leaves the hysteresis band
// around its midpoint on the opposite side from the previous excursion.
func transitions(x []float64, fraction float64) []int {
	if len(x) < 2 {
		return nil
	}
	lo, hi := slices.Min(x), slices.Max(x)
	if hi == lo {
		return nil
	}
	mid := (hi + lo) / 2
	band := fraction * (hi - lo) / 2
	// Keep the band strictly inside the range so both levels register.
	band = min(band, (hi-lo)/2*(1-1e-9))

	var (
		out   []int
		state int // 0 unknown, +1 high, -1 low
	)
	for i, v := range x {
		var next int
		switch {
		case v > mid+band:
			next = 1
		case v < mid-band:
			next = -1
		default:
			continue
		}
		if state != 0 && next != state {
			out = append(out, i)
		}
		state = next
	}
	return out
}
