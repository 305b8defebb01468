// Package handoff reads and writes the plain-text files that carry a bit
// sequence and its symbol period, or a sampled signal, between tools.
//
// A sequence file has a header line followed by one "value period" line
// per bit, the period in milliseconds:
//
//	Binary Sequence   Period (ms)
//	1 100.00
//	0 100.00
//
// A signal file has a "# name" header followed by one sample per line.
package handoff

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
	"github.com/cwbudde/algo-txchain/linecode"
)

const stage = "handoff"

// Header is the first line of a sequence file.
const Header = "Binary Sequence   Period (ms)"

// Sequence is the content of a sequence file.
type Sequence struct {
	Bits     linecode.Bits
	PeriodMs float64
	// Skipped counts the malformed lines Read ignored.
	Skipped int
}

// Read parses a sequence file. The first line is a header and is not
// interpreted. Lines that do not hold exactly an integer and a number are
// skipped and counted; blank lines are ignored. A value other than 0 or 1
// is core.ErrInvalidInput, and lines that disagree on the period are
// core.ErrInvalidConfiguration.
func Read(r io.Reader) (Sequence, error) {
	sc := bufio.NewScanner(r)
	var seq Sequence
	line := 0
	for sc.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			seq.Skipped++
			continue
		}
		value, err := strconv.Atoi(fields[0])
		if err != nil {
			seq.Skipped++
			continue
		}
		period, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			seq.Skipped++
			continue
		}

		if value != 0 && value != 1 {
			return Sequence{}, core.NewStageError(stage, core.ErrInvalidInput, fmt.Sprintf("line %d", line), value)
		}
		if !(period > 0) || !core.IsFinite(period) {
			return Sequence{}, core.NewStageError(stage, core.ErrInvalidConfiguration, fmt.Sprintf("line %d", line), period)
		}
		if len(seq.Bits) > 0 && period != seq.PeriodMs {
			return Sequence{}, core.NewStageError(stage, core.ErrInvalidConfiguration, "period_ms",
				fmt.Sprintf("%g at line %d, %g before", period, line, seq.PeriodMs))
		}
		seq.PeriodMs = period
		seq.Bits = append(seq.Bits, uint8(value))
	}
	if err := sc.Err(); err != nil {
		return Sequence{}, fmt.Errorf("handoff: read sequence: %w", err)
	}
	if len(seq.Bits) == 0 {
		return Sequence{}, core.NewStageError(stage, core.ErrInvalidInput, "bits", 0)
	}
	return seq, nil
}

// Write emits seq in the format Read accepts, the period with two decimals.
func Write(w io.Writer, seq Sequence) error {
	if err := seq.Bits.Validate(); err != nil {
		return err
	}
	if !(seq.PeriodMs > 0) || !core.IsFinite(seq.PeriodMs) {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "period_ms", seq.PeriodMs)
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)
	for _, b := range seq.Bits {
		fmt.Fprintf(bw, "%d %.2f\n", b, seq.PeriodMs)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("handoff: write sequence: %w", err)
	}
	return nil
}

// ReadSignal parses a signal file and returns its name and samples. Lines
// that are not numbers are skipped.
func ReadSignal(r io.Reader) (name string, samples []float64, err error) {
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if first {
			first = false
			if after, ok := strings.CutPrefix(text, "#"); ok {
				name = strings.TrimSpace(after)
				continue
			}
		}
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, perr := strconv.ParseFloat(text, 64)
		if perr != nil {
			continue
		}
		samples = append(samples, v)
	}
	if err := sc.Err(); err != nil {
		return "", nil, fmt.Errorf("handoff: read signal: %w", err)
	}
	return name, samples, nil
}

// WriteSignal emits samples with six decimals under a "# name" header.
func WriteSignal(w io.Writer, name string, samples []float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", name)
	for _, v := range samples {
		fmt.Fprintf(bw, "%f\n", v)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("handoff: write signal: %w", err)
	}
	return nil
}
