// Command txchain simulates a digital transmission chain and prints what
// happened at every stage.
//
// Usage:
//
//	txchain [flags]
//
// The message is taken from -bits, from a sequence file (-in, "-" for
// stdin), or drawn at random (-n bits). Parameters come from an optional
// YAML file (-config) and are overridden by the flags that are set.
//
// Examples:
//
//	txchain -bits 1011001 -scheme manchester
//	txchain -n 64 -noise 0.3 -modulation psk -demod psk -f0 100
//	txchain -config run.yaml -in sequence.txt -dump demodulated > demod.txt
//	txchain -bits 1010 -out recovered.txt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/golang/glog"

	"github.com/cwbudde/algo-txchain/demod"
	"github.com/cwbudde/algo-txchain/dsp/signal"
	"github.com/cwbudde/algo-txchain/handoff"
	"github.com/cwbudde/algo-txchain/linecode"
	"github.com/cwbudde/algo-txchain/modulation"
	"github.com/cwbudde/algo-txchain/pipeline"
	timestats "github.com/cwbudde/algo-txchain/stats/time"
)

// DefaultMessageLength is the length of a random message.
const DefaultMessageLength = 10

var (
	configFile = flag.String("config", "", "YAML run file; flags override its values")
	bitsFlag   = flag.String("bits", "", "message as a string of 0 and 1")
	inFile     = flag.String("in", "", "read the message from a sequence file (\"-\" for stdin)")
	count      = flag.Int("n", DefaultMessageLength, "length of a random message")
	seed       = flag.Uint64("seed", 0, "seed for the random message and the channel noise (0 = clock)")
	outFile    = flag.String("out", "", "write the recovered bits as a sequence file")
	dump       = flag.String("dump", "", "write one stage (baseband, modulated, received, demodulated) as a signal file to stdout")
	randPeriod = flag.Bool("random-period", false, "draw the symbol period of a random message from the standard list")

	scheme     = flag.String("scheme", "", "line code: nrz, unipolar, rz, manchester, miller, hdbn")
	order      = flag.Int("order", 0, "HDBn violation order")
	periodMs   = flag.Float64("period", 0, "symbol period in ms")
	sampleRate = flag.Float64("fs", 0, "sample rate in Hz")
	mod        = flag.String("modulation", "", "modulation: ask, fsk, psk")
	f0         = flag.Float64("f0", 0, "carrier (FSK: lower tone) frequency in Hz")
	f1         = flag.Float64("f1", 0, "upper FSK tone in Hz")
	noise      = flag.Float64("noise", -1, "channel noise standard deviation")
	method     = flag.String("demod", "", "demodulator: coherent, envelope, psk, fsk")
	threshold  = flag.Float64("threshold", -1, "decision threshold")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "true")
	flag.Set("stderrthreshold", "WARNING")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: txchain [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Transmits a bit sequence through line coding, pulse shaping, modulation,\n")
		fmt.Fprintf(os.Stderr, "a noisy channel and the receiver, and reports every stage.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  txchain -bits 1011001 -scheme manchester\n")
		fmt.Fprintf(os.Stderr, "  txchain -n 64 -noise 0.3 -modulation psk -demod psk -f0 100\n")
		fmt.Fprintf(os.Stderr, "  txchain -in - < sequence.txt\n")
	}
	flag.Parse()
	defer glog.Flush()

	cfg, err := buildConfig()
	if err != nil {
		glog.Exitf("txchain: %v", err)
	}
	bits, period, err := message(os.Stdin)
	if err != nil {
		glog.Exitf("txchain: %v", err)
	}
	// An explicit -period wins over the one carried by the message.
	if period > 0 && !isSet("period") {
		cfg.PeriodMs = period
	}

	res, err := pipeline.Run(context.Background(), bits, cfg)
	if err != nil {
		glog.Exitf("txchain: %v", err)
	}

	if *dump != "" {
		w, err := res.Waveform(pipeline.Stage(*dump))
		if err != nil {
			glog.Exitf("txchain: %v", err)
		}
		if err := handoff.WriteSignal(os.Stdout, *dump+" signal", w.Samples); err != nil {
			glog.Exitf("txchain: %v", err)
		}
	} else {
		report(os.Stdout, res)
	}

	if *outFile != "" {
		if err := writeSequence(*outFile, res); err != nil {
			glog.Exitf("txchain: %v", err)
		}
	}
}

// buildConfig loads -config, if any, and applies the flags that were set.
func buildConfig() (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(*configFile); err != nil {
			return pipeline.Config{}, err
		}
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "scheme":
			cfg.LineCode.Scheme, err = linecode.ParseScheme(*scheme)
		case "order":
			cfg.LineCode.HDBNOrder = *order
		case "period":
			cfg.PeriodMs = *periodMs
		case "fs":
			cfg.SampleRate = *sampleRate
		case "modulation":
			cfg.Modulation.Scheme, err = modulation.ParseScheme(*mod)
		case "f0":
			cfg.Modulation.F0 = *f0
		case "f1":
			cfg.Modulation.F1 = *f1
		case "noise":
			cfg.Channel.NoiseLevel = *noise
		case "seed":
			cfg.Channel.Seed = *seed
		case "demod":
			cfg.Demod.Method, err = demod.ParseMethod(*method)
		case "threshold":
			cfg.DecisionThreshold = *threshold
		}
	})
	return cfg, err
}

func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) { set = set || f.Name == name })
	return set
}

// message returns the bits to send and the symbol period in ms they come
// with, 0 if none. stdin is read when -in is "-".
func message(stdin io.Reader) (linecode.Bits, float64, error) {
	switch {
	case *bitsFlag != "" && *inFile != "":
		return nil, 0, errors.New("-bits and -in are mutually exclusive")
	case *bitsFlag != "":
		bits, err := linecode.ParseBits(*bitsFlag)
		return bits, 0, err
	case *inFile != "":
		r := stdin
		if *inFile != "-" {
			f, err := os.Open(*inFile)
			if err != nil {
				return nil, 0, err
			}
			defer f.Close()
			r = f
		}
		seq, err := handoff.Read(r)
		if err != nil {
			return nil, 0, err
		}
		if seq.Skipped > 0 {
			glog.Warningf("txchain: skipped %d malformed lines of %s", seq.Skipped, *inFile)
		}
		return seq.Bits, seq.PeriodMs, nil
	default:
		var opts []signal.Option
		if *seed != 0 {
			opts = append(opts, signal.WithSeed(*seed))
		}
		gen := signal.NewGenerator(opts...)
		bits, err := gen.Bits(*count)
		if err != nil {
			return nil, 0, err
		}
		var period float64
		if *randPeriod {
			period = gen.SymbolPeriod()
		}
		return linecode.Bits(bits), period, nil
	}
}

func writeSequence(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	period := res.Config.PeriodMs
	if res.Config.Clock.UseRecoveredPeriod && res.Clock.OK {
		period = res.Clock.Period * 1000
	}
	if err := handoff.Write(f, handoff.Sequence{Bits: res.Recovered, PeriodMs: period}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func report(out io.Writer, res *pipeline.Result) {
	cfg := res.Config
	fmt.Fprintf(out, "line code   %s, %.2f ms at %.0f Hz\n", cfg.LineCode.Scheme, cfg.PeriodMs, cfg.SampleRate)
	fmt.Fprintf(out, "modulation  %s at %.2f Hz, demodulated %s\n", cfg.Modulation.Scheme, cfg.Modulation.F0, cfg.Demod.Method)
	fmt.Fprintf(out, "sent        %s\n", res.Bits)
	fmt.Fprintf(out, "recovered   %s\n", res.Recovered)
	fmt.Fprintf(out, "bit errors  %d\n", res.BitErrors)
	if res.Carrier > 0 {
		fmt.Fprintf(out, "carrier     %.2f Hz\n", res.Carrier)
	}
	if res.Clock.OK {
		fmt.Fprintf(out, "clock       %.4f s from %d events\n", res.Clock.Period, len(res.Clock.Events))
	} else {
		fmt.Fprintf(out, "clock       not recovered (%d events)\n", len(res.Clock.Events))
	}
	fmt.Fprintf(out, "snr         %.1f dB\n\n", res.SNR)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Stage\tSamples\tDC\tRMS\tPeak\tPeak freq [Hz]\tCentroid [Hz]\tBandwidth [Hz]\n")
	fmt.Fprintf(tw, "-----\t-------\t--\t---\t----\t--------------\t-------------\t--------------\n")
	for _, s := range pipeline.Stages {
		w, _ := res.Waveform(s)
		ts := timestats.Calculate(w.Samples)
		fs, err := res.Spectrum(s)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t-\t-\t-\n", s, ts.Length, ts.DC, ts.RMS, ts.Peak)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\t%.2f\t%.2f\t%.2f\n",
			s, ts.Length, ts.DC, ts.RMS, ts.Peak, fs.PeakFrequency, fs.Centroid, fs.Bandwidth)
	}
	if err := tw.Flush(); err != nil {
		glog.Warningf("txchain: flush report: %v", err)
	}
}
