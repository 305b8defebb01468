package core

// Clone returns a copy of src, empty but non-nil for an empty src.
func Clone(src []float64) []float64 {
	return append(make([]float64, 0, len(src)), src...)
}

// MaxAbs returns the largest magnitude in buf, 0 when buf is empty.
func MaxAbs(buf []float64) float64 {
	var peak float64
	for _, v := range buf {
		peak = max(peak, v, -v)
	}
	return peak
}
