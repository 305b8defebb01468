package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-txchain/clock"
	"github.com/cwbudde/algo-txchain/decision"
	"github.com/cwbudde/algo-txchain/demod"
	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/modulation"
	"github.com/cwbudde/algo-txchain/pulse"
)

var testBits = linecode.Bits{1, 0, 1, 1, 0, 0, 1, 0, 1, 0}

func noiseless() Config {
	cfg := DefaultConfig()
	cfg.Channel.NoiseLevel = 0
	return cfg
}

func TestRun_DefaultConfigRoundTrip(t *testing.T) {
	res, err := Run(context.Background(), testBits, noiseless())
	require.NoError(t, err)

	assert.Equal(t, testBits, res.Recovered)
	assert.Zero(t, res.BitErrors)
	assert.Equal(t, 1000, res.Baseband.Len())
	assert.Equal(t, 100, res.SamplesPerBit)
	assert.InDelta(t, 250, res.Carrier, 1)
	assert.Equal(t, res.Modulated.Samples, res.Received.Samples)

	// Every recorded waveform shares the time base.
	for _, s := range Stages {
		w, err := res.Waveform(s)
		require.NoError(t, err)
		assert.Equal(t, 1000.0, w.SampleRate, s)
		assert.Equal(t, res.Baseband.Len(), w.Len(), s)
	}
}

func TestRun_NoisyChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channel.Seed = 11

	res, err := Run(context.Background(), testBits, cfg)
	require.NoError(t, err)
	assert.Equal(t, testBits, res.Recovered)
	assert.Greater(t, res.SNR, 25.0)

	// A fixed seed reproduces the channel exactly.
	again, err := Run(context.Background(), testBits, cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Received.Samples, again.Received.Samples)
}

func TestRun_CoherentAllSchemes(t *testing.T) {
	bits := linecode.Bits{1, 0, 0, 0, 0, 1, 1, 0, 1, 0, 0, 0, 1}
	for _, scheme := range []linecode.Scheme{
		linecode.NRZ, linecode.Unipolar, linecode.RZ,
		linecode.Manchester, linecode.Miller, linecode.HDBN,
	} {
		t.Run(scheme.String(), func(t *testing.T) {
			cfg := noiseless()
			cfg.LineCode.Scheme = scheme
			cfg.Shaping.Unipolar = false
			cfg.Demod.Carrier = 250
			cfg.DecisionThreshold = decision.SignedThreshold
			if !scheme.Signed() {
				cfg.DecisionThreshold = decision.UnipolarThreshold
			}

			res, err := Run(context.Background(), bits, cfg)
			require.NoError(t, err)
			assert.Equal(t, bits, res.Recovered)
			assert.Equal(t, 250.0, res.Carrier)
		})
	}
}

func TestRun_NyquistShaping(t *testing.T) {
	cfg := noiseless()
	cfg.Shaping.Mode = pulse.Nyquist

	res, err := Run(context.Background(), testBits, cfg)
	require.NoError(t, err)
	assert.Positive(t, res.Baseband.Delay)
	assert.Equal(t, res.Baseband.Delay, res.Demodulated.Delay)
	assert.Equal(t, testBits, res.Recovered)
}

func TestRun_EnvelopeASK(t *testing.T) {
	cfg := noiseless()
	cfg.LineCode.Scheme = linecode.Unipolar
	cfg.Demod = DemodConfig{Method: demod.Envelope, Binarize: true, Threshold: 0.1}
	// A binarized quarter-rate carrier is high half of the time.
	cfg.DecisionThreshold = 0.25

	res, err := Run(context.Background(), testBits, cfg)
	require.NoError(t, err)
	assert.Equal(t, testBits, res.Recovered)
	assert.Zero(t, res.Carrier)
}

func TestRun_FSKAndPSK(t *testing.T) {
	tests := []struct {
		name string
		mod  ModulationConfig
		dm   demod.Method
	}{
		{"fsk", ModulationConfig{Scheme: modulation.FSK, F0: 100, F1: 200}, demod.FSK},
		{"psk", ModulationConfig{Scheme: modulation.PSK, F0: 100}, demod.PSK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := noiseless()
			cfg.PeriodMs = 200
			cfg.Modulation = tt.mod
			cfg.Demod.Method = tt.dm
			cfg.Demod.Carrier = 100

			res, err := Run(context.Background(), testBits, cfg)
			require.NoError(t, err)
			assert.Equal(t, testBits, res.Recovered)
		})
	}
}

func TestRun_UseRecoveredPeriod(t *testing.T) {
	cfg := noiseless()
	cfg.Clock = ClockConfig{
		Detector:           clock.Transitions,
		Reducer:            clock.Min,
		Fraction:           clock.DefaultFraction,
		UseRecoveredPeriod: true,
	}

	bits := linecode.Bits{1, 0, 1, 0, 1, 0, 1, 0, 1, 0}
	res, err := Run(context.Background(), bits, cfg)
	require.NoError(t, err)
	require.True(t, res.Clock.OK)
	assert.InDelta(t, 100, res.SamplesPerBit, 2)
	assert.Equal(t, bits, res.Recovered)
}

func TestRun_ClockFailure(t *testing.T) {
	// An all-zero unipolar message leaves nothing to recover a clock from.
	bits := linecode.Bits{0, 0, 0}
	cfg := noiseless()
	cfg.LineCode.Scheme = linecode.Unipolar
	cfg.Demod.Carrier = 250
	cfg.Clock.Detector = clock.Transitions

	res, err := Run(context.Background(), bits, cfg)
	require.NoError(t, err, "the configured period is used when recovery fails")
	assert.False(t, res.Clock.OK)
	assert.Equal(t, bits, res.Recovered)

	cfg.Clock.UseRecoveredPeriod = true
	_, err = Run(context.Background(), bits, cfg)
	require.ErrorIs(t, err, core.ErrInsufficientSignal)
	assert.Equal(t, "clock", core.StageOf(err))
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bits   linecode.Bits
		mutate func(*Config)
		want   error
		stage  string
	}{
		{"empty bits", linecode.Bits{}, nil, core.ErrInvalidInput, "pipeline"},
		{"non-binary bits", linecode.Bits{1, 2}, nil, core.ErrInvalidInput, "linecode"},
		{"zero sample rate", testBits, func(c *Config) { c.SampleRate = 0 }, core.ErrInvalidConfiguration, "pipeline"},
		{"zero period", testBits, func(c *Config) { c.PeriodMs = 0 }, core.ErrInvalidConfiguration, "pipeline"},
		{"hdbn order", testBits, func(c *Config) {
			c.LineCode = LineCodeConfig{Scheme: linecode.HDBN}
		}, core.ErrInvalidConfiguration, "linecode"},
		{"carrier above nyquist", testBits, func(c *Config) { c.Modulation.F0 = 600 }, core.ErrInvalidConfiguration, "modulation"},
		{"signed fsk", testBits, func(c *Config) {
			c.Shaping.Unipolar = false
			c.Modulation = ModulationConfig{Scheme: modulation.FSK, F0: 100}
		}, core.ErrInvalidConfiguration, "pipeline"},
		{"signed envelope", testBits, func(c *Config) {
			c.Shaping.Unipolar = false
			c.Demod.Method = demod.Envelope
		}, core.ErrInvalidConfiguration, "pipeline"},
		{"negative noise", testBits, func(c *Config) { c.Channel.NoiseLevel = -1 }, core.ErrInvalidConfiguration, "channel"},
		{"clock fraction", testBits, func(c *Config) { c.Clock.Fraction = 0 }, core.ErrInvalidConfiguration, "clock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := noiseless()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			res, err := Run(context.Background(), tt.bits, cfg)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, res)
			assert.Equal(t, tt.stage, core.StageOf(err))
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, testBits, noiseless())
	require.True(t, errors.Is(err, context.Canceled), "err = %v", err)
}

func TestResult_PSDAndSpectrum(t *testing.T) {
	res, err := Run(context.Background(), testBits, noiseless())
	require.NoError(t, err)

	freqs, psd, err := res.PSD(Modulated)
	require.NoError(t, err)
	require.Len(t, psd, len(freqs))
	assert.Equal(t, 0.0, freqs[0])
	assert.Equal(t, 500.0, freqs[len(freqs)-1])

	st, err := res.Spectrum(Modulated)
	require.NoError(t, err)
	assert.InDelta(t, 250, st.PeakFrequency, 1)

	_, _, err = res.PSD(Stage("carrier"))
	require.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
period_ms: 50
line_code:
  scheme: manchester
modulation:
  scheme: psk
  f0: 100
channel:
  noise_level: 0.2
  seed: 7
demod:
  method: psk
clock:
  detector: transitions
  reducer: median
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, cfg.PeriodMs)
	assert.Equal(t, linecode.Manchester, cfg.LineCode.Scheme)
	assert.Equal(t, modulation.PSK, cfg.Modulation.Scheme)
	assert.Equal(t, 100.0, cfg.Modulation.F0)
	assert.Equal(t, ChannelConfig{NoiseLevel: 0.2, Seed: 7}, cfg.Channel)
	assert.Equal(t, demod.PSK, cfg.Demod.Method)
	assert.Equal(t, clock.Transitions, cfg.Clock.Detector)
	assert.Equal(t, clock.Median, cfg.Clock.Reducer)

	// Keys absent from the file keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.SampleRate, cfg.SampleRate)
	assert.Equal(t, def.LineCode.HDBNOrder, cfg.LineCode.HDBNOrder)
	assert.Equal(t, def.Shaping, cfg.Shaping)
	assert.Equal(t, def.Clock.Fraction, cfg.Clock.Fraction)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("line_code:\n  scheme: ami\n"), 0o600))
	_, err = LoadConfig(path)
	require.ErrorIs(t, err, core.ErrInvalidConfiguration)
}
