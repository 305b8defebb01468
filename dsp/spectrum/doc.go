// Package spectrum provides FFT-based spectrum utilities: bin magnitude and
// power helpers, carrier peak search ([PeakFrequency]) and Welch power
// spectral density estimation ([Welch]).
//
// Transforms are computed with algo-fft plans; bin arithmetic uses
// algo-vecmath block kernels.
package spectrum
