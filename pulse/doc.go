// Package pulse turns line-code symbols into a sampled baseband [Waveform].
//
// Rectangular shaping holds every symbol for one symbol period. Nyquist
// shaping additionally passes the held signal through a Kaiser-windowed
// raised-cosine FIR, which limits the occupied bandwidth while keeping the
// pulse zero at the neighbouring symbol instants.
package pulse
