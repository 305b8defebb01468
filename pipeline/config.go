package pipeline

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-txchain/clock"
	"github.com/cwbudde/algo-txchain/decision"
	"github.com/cwbudde/algo-txchain/demod"
	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/dsp/spectrum"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/modulation"
	"github.com/cwbudde/algo-txchain/pulse"
)

// LineCodeConfig selects the line code.
type LineCodeConfig struct {
	Scheme    linecode.Scheme `yaml:"scheme" json:"scheme"`
	HDBNOrder int             `yaml:"hdbn_order" json:"hdbn_order"`
}

// ShapingConfig selects the pulse shape. Unipolar maps the shaped baseband
// from [-1, 1] to [0, 1] before modulation.
type ShapingConfig struct {
	Mode     pulse.Mode `yaml:"mode" json:"mode"`
	Taps     int        `yaml:"taps" json:"taps"`
	RollOff  float64    `yaml:"roll_off" json:"roll_off"`
	Beta     float64    `yaml:"kaiser_beta" json:"kaiser_beta"`
	Unipolar bool       `yaml:"unipolar" json:"unipolar"`
}

// ModulationConfig selects the carrier.
type ModulationConfig struct {
	Scheme         modulation.Scheme `yaml:"scheme" json:"scheme"`
	F0             float64           `yaml:"f0" json:"f0"`
	F1             float64           `yaml:"f1" json:"f1"`
	PhaseDeviation float64           `yaml:"phase_deviation" json:"phase_deviation"`
}

// ChannelConfig sets the additive noise. A zero seed draws fresh noise on
// every run.
type ChannelConfig struct {
	NoiseLevel float64 `yaml:"noise_level" json:"noise_level"`
	Seed       uint64  `yaml:"seed" json:"seed"`
}

// DemodConfig mirrors demod.Config. Carrier 0 detects the carrier from the
// spectrum of the received signal.
type DemodConfig struct {
	Method            demod.Method `yaml:"method" json:"method"`
	Carrier           float64      `yaml:"carrier" json:"carrier"`
	LowpassOrder      int          `yaml:"lowpass_order" json:"lowpass_order"`
	Cutoff            float64      `yaml:"cutoff" json:"cutoff"`
	Smoothing         int          `yaml:"smoothing" json:"smoothing"`
	Binarize          bool         `yaml:"binarize" json:"binarize"`
	Threshold         float64      `yaml:"envelope_threshold" json:"envelope_threshold"`
	NormalizePolarity bool         `yaml:"normalize_polarity" json:"normalize_polarity"`
}

// ClockConfig drives symbol clock recovery. When UseRecoveredPeriod is set
// the decoder uses the recovered period instead of the configured one and a
// failed recovery aborts the run.
type ClockConfig struct {
	Detector           clock.Detector `yaml:"detector" json:"detector"`
	Reducer            clock.Reducer  `yaml:"reducer" json:"reducer"`
	Fraction           float64        `yaml:"fraction" json:"fraction"`
	UseRecoveredPeriod bool           `yaml:"use_recovered_period" json:"use_recovered_period"`
}

// Config holds every parameter of a run.
type Config struct {
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
	PeriodMs   float64 `yaml:"period_ms" json:"period_ms"`

	LineCode   LineCodeConfig   `yaml:"line_code" json:"line_code"`
	Shaping    ShapingConfig    `yaml:"shaping" json:"shaping"`
	Modulation ModulationConfig `yaml:"modulation" json:"modulation"`
	Channel    ChannelConfig    `yaml:"channel" json:"channel"`
	Demod      DemodConfig      `yaml:"demod" json:"demod"`
	Clock      ClockConfig      `yaml:"clock" json:"clock"`

	// DecisionThreshold separates 0 and 1 in the demodulated baseband.
	DecisionThreshold float64 `yaml:"decision_threshold" json:"decision_threshold"`
	// SegmentLength is the Welch segment length used by Result.PSD.
	SegmentLength int `yaml:"segment_length" json:"segment_length"`
}

// DefaultConfig returns a unipolar NRZ link over 250 Hz ASK, sampled at
// 1 kHz with 100 ms symbols, 0.01 noise and coherent detection with carrier
// recovery.
func DefaultConfig() Config {
	shaping := pulse.DefaultConfig()
	return Config{
		SampleRate: 1000,
		PeriodMs:   100,
		LineCode: LineCodeConfig{
			Scheme:    linecode.NRZ,
			HDBNOrder: linecode.DefaultHDBNOrder,
		},
		Shaping: ShapingConfig{
			Mode:     shaping.Mode,
			Taps:     shaping.Taps,
			RollOff:  shaping.RollOff,
			Beta:     shaping.Beta,
			Unipolar: true,
		},
		Modulation: ModulationConfig{
			Scheme: modulation.ASK,
			F0:     250,
		},
		Channel: ChannelConfig{
			NoiseLevel: 0.01,
		},
		Demod: DemodConfig{
			Method:       demod.Coherent,
			LowpassOrder: demod.DefaultLowpassOrder,
		},
		Clock: ClockConfig{
			Detector: clock.Peaks,
			Reducer:  clock.Mean,
			Fraction: clock.DefaultFraction,
		},
		DecisionThreshold: decision.UnipolarThreshold,
		SegmentLength:     spectrum.DefaultSegmentLength,
	}
}

// LineSpec returns the line code of the run.
func (c Config) LineSpec() linecode.Spec {
	return linecode.Spec{Scheme: c.LineCode.Scheme, Order: c.LineCode.HDBNOrder}
}

// PulseConfig returns the shaper configuration of the run.
func (c Config) PulseConfig() pulse.Config {
	return pulse.Config{Mode: c.Shaping.Mode, Taps: c.Shaping.Taps, RollOff: c.Shaping.RollOff, Beta: c.Shaping.Beta}
}

// ModulationSpec returns the modulator configuration of the run.
func (c Config) ModulationSpec() modulation.Spec {
	return modulation.Spec{
		Scheme:         c.Modulation.Scheme,
		F0:             c.Modulation.F0,
		F1:             c.Modulation.F1,
		PhaseDeviation: c.Modulation.PhaseDeviation,
	}
}

// DemodulatorConfig returns the demodulator configuration of the run. FSK tone
// and PSK deviation follow the modulator.
func (c Config) DemodulatorConfig() demod.Config {
	d := c.Demod
	cfg := demod.Config{
		Method:            d.Method,
		Carrier:           d.Carrier,
		LowpassOrder:      d.LowpassOrder,
		Cutoff:            d.Cutoff,
		Smoothing:         d.Smoothing,
		Binarize:          d.Binarize,
		Threshold:         d.Threshold,
		NormalizePolarity: d.NormalizePolarity,
	}
	if d.Method == demod.FSK {
		cfg.F1 = c.Modulation.F1
	}
	if d.Method == demod.PSK {
		cfg.PhaseDeviation = c.Modulation.PhaseDeviation
	}
	return cfg
}

// ClockOptions returns the clock recovery options of the run.
func (c Config) ClockOptions() []clock.Option {
	return []clock.Option{
		clock.WithDetector(c.Clock.Detector),
		clock.WithReducer(c.Clock.Reducer),
		clock.WithFraction(c.Clock.Fraction),
	}
}

// Signed reports whether the baseband fed to the modulator takes negative
// levels.
func (c Config) Signed() bool {
	return c.LineCode.Scheme.Signed() && !c.Shaping.Unipolar
}

// Validate checks the parameters that span stages. Each stage validates its
// own parameters when it runs.
func (c Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "sample_rate", c.SampleRate)
	}
	if !(c.PeriodMs > 0) || math.IsInf(c.PeriodMs, 0) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "period_ms", c.PeriodMs)
	}
	if err := c.LineSpec().Validate(); err != nil {
		return err
	}
	if err := c.ModulationSpec().Validate(c.SampleRate); err != nil {
		return err
	}
	if math.IsNaN(c.DecisionThreshold) || math.IsInf(c.DecisionThreshold, 0) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "decision_threshold", c.DecisionThreshold)
	}
	if c.Modulation.Scheme != modulation.ASK && c.Signed() {
		// FSK and PSK key on a [0, 1] baseband.
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "shaping.unipolar", c.Shaping.Unipolar)
	}
	if c.Demod.Method == demod.Envelope && c.Signed() {
		// The envelope drops the sign of a polar baseband.
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "demod.method", c.Demod.Method.String())
	}
	return nil
}

// LoadConfig reads a YAML run file on top of DefaultConfig, so a file only
// needs the keys it changes.
func LoadConfig(filename string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("pipeline: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pipeline: parse config %s: %w", filename, err)
	}
	return cfg, nil
}
