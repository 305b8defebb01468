package linecode

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-txchain/dsp/core"
)

const stage = "linecode"

// Bits is a sequence of binary digits, each 0 or 1.
type Bits []uint8

// Validate reports the first non-binary value as core.ErrInvalidInput.
func (b Bits) Validate() error {
	for i, v := range b {
		if v > 1 {
			return core.NewStageError(stage, core.ErrInvalidInput, fmt.Sprintf("bits[%d]", i), v)
		}
	}
	return nil
}

// String renders the bits as a string of '0' and '1'.
func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, v := range b {
		sb.WriteByte('0' + v)
	}
	return sb.String()
}

// Errors counts the positions where b and other differ. Bits missing from
// the shorter sequence count as errors.
func (b Bits) Errors(other Bits) int {
	n := min(len(b), len(other))
	errs := max(len(b), len(other)) - n
	for i := range n {
		if b[i] != other[i] {
			errs++
		}
	}
	return errs
}

// ParseBits parses a string of '0' and '1' characters. Spaces and commas
// are ignored.
func ParseBits(s string) (Bits, error) {
	out := make(Bits, 0, len(s))
	for i, r := range s {
		switch r {
		case '0', '1':
			out = append(out, uint8(r-'0'))
		case ' ', ',', '\t', '\n', '\r':
		default:
			return nil, core.NewStageError(stage, core.ErrInvalidInput, fmt.Sprintf("bits[%d]", i), string(r))
		}
	}
	return out, nil
}

// Scheme identifies a line code.
type Scheme int

const (
	// NRZ is polar non-return-to-zero: 1 -> +1, 0 -> -1.
	NRZ Scheme = iota
	// Unipolar is unipolar non-return-to-zero: 1 -> 1, 0 -> 0.
	Unipolar
	// RZ is unipolar return-to-zero: 1 -> [+1, 0], 0 -> [0, 0].
	RZ
	// Manchester maps 0 -> [+1, -1] and 1 -> [-1, +1].
	Manchester
	// Miller (delay modulation) transitions mid-bit for every 1 and at the
	// boundary between two consecutive 0s.
	Miller
	// HDBN replaces every k-th consecutive zero by a violation pulse.
	HDBN
)

var schemeNames = map[Scheme]string{
	NRZ:        "nrz",
	Unipolar:   "unipolar",
	RZ:         "rz",
	Manchester: "manchester",
	Miller:     "miller",
	HDBN:       "hdbn",
}

// String returns the canonical lower-case scheme name.
func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scheme(%d)", int(s))
}

// PerBit returns the number of symbols emitted per bit, or 0 for an
// unknown scheme.
func (s Scheme) PerBit() int {
	switch s {
	case NRZ, Unipolar, HDBN:
		return 1
	case RZ, Manchester, Miller:
		return 2
	default:
		return 0
	}
}

// Signed reports whether the scheme emits negative levels.
func (s Scheme) Signed() bool {
	return s != Unipolar && s != RZ
}

// ParseScheme maps a case-insensitive scheme name to its tag.
func ParseScheme(name string) (Scheme, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s, sn := range schemeNames {
		if sn == n {
			return s, nil
		}
	}
	return 0, core.NewStageError(stage, core.ErrInvalidConfiguration, "scheme", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	if _, ok := schemeNames[s]; !ok {
		return nil, core.NewStageError(stage, core.ErrInvalidConfiguration, "scheme", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	v, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Spec selects a line code. Order is the HDBn violation order and is
// ignored by the other schemes.
type Spec struct {
	Scheme Scheme
	Order  int
}

// DefaultHDBNOrder is the violation order used when none is configured.
const DefaultHDBNOrder = 3

// Validate checks the scheme tag and, for HDBn, the violation order.
func (s Spec) Validate() error {
	if s.Scheme.PerBit() == 0 {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "scheme", int(s.Scheme))
	}
	if s.Scheme == HDBN && s.Order < 1 {
		return core.NewStageError(stage, core.ErrInvalidConfiguration, "order", s.Order)
	}
	return nil
}

// Symbols is the output of [Encode]: line-code levels and the number of
// levels that make up one bit.
type Symbols struct {
	Values []float64
	PerBit int
}

// Bits returns the number of bits the symbols encode.
func (s Symbols) Bits() int {
	if s.PerBit <= 0 {
		return 0
	}
	return len(s.Values) / s.PerBit
}
