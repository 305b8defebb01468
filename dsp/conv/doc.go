// Package conv convolves real signals. [Convolve] picks a time-domain loop
// for short kernels and an FFT product for long ones; [Same] keeps the input
// length and [MovingAverage] is the boxcar smoother used on envelopes.
package conv
