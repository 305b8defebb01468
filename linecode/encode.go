package linecode

// Encode maps bits to line-code symbols. An empty input yields empty
// symbols for every scheme.
func Encode(bits Bits, spec Spec) (Symbols, error) {
	if err := spec.Validate(); err != nil {
		return Symbols{}, err
	}
	if err := bits.Validate(); err != nil {
		return Symbols{}, err
	}

	perBit := spec.Scheme.PerBit()
	out := Symbols{
		Values: make([]float64, 0, len(bits)*perBit),
		PerBit: perBit,
	}

	switch spec.Scheme {
	case NRZ:
		for _, b := range bits {
			out.Values = append(out.Values, 2*float64(b)-1)
		}
	case Unipolar:
		for _, b := range bits {
			out.Values = append(out.Values, float64(b))
		}
	case RZ:
		for _, b := range bits {
			out.Values = append(out.Values, float64(b), 0)
		}
	case Manchester:
		for _, b := range bits {
			if b == 1 {
				out.Values = append(out.Values, -1, 1)
			} else {
				out.Values = append(out.Values, 1, -1)
			}
		}
	case Miller:
		st := millerState{level: 1, prev: 1}
		for _, b := range bits {
			var pair [2]float64
			st, pair = st.next(b)
			out.Values = append(out.Values, pair[0], pair[1])
		}
	case HDBN:
		st := hdbnState{order: spec.Order}
		for _, b := range bits {
			var v float64
			st, v = st.next(b)
			out.Values = append(out.Values, v)
		}
	}

	return out, nil
}

// millerState is the carry of the Miller fold: the line level at the end of
// the previous bit and the previous bit itself.
type millerState struct {
	level float64
	prev  uint8
}

func (s millerState) next(b uint8) (millerState, [2]float64) {
	l := s.level
	switch {
	case b == 1:
		return millerState{level: -l, prev: 1}, [2]float64{l, -l}
	case s.prev == 1:
		return millerState{level: l, prev: 0}, [2]float64{l, l}
	default:
		return millerState{level: -l, prev: 0}, [2]float64{-l, -l}
	}
}

// hdbnState is the carry of the HDBn fold: the length of the current zero
// run.
type hdbnState struct {
	order int
	zeros int
}

// ViolationLevel is the symbol HDBn emits in place of the k-th zero of a run.
const ViolationLevel = -1.0

func (s hdbnState) next(b uint8) (hdbnState, float64) {
	if b == 1 {
		return hdbnState{order: s.order}, 1
	}
	if s.zeros+1 == s.order {
		return hdbnState{order: s.order}, ViolationLevel
	}
	return hdbnState{order: s.order, zeros: s.zeros + 1}, 0
}
