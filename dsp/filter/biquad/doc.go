// Package biquad runs IIR filters built from second-order sections.
//
// A [Section] filters with one set of [Coefficients], a [Chain] cascades
// sections and [FiltFilt] runs a cascade forward and backward over a block
// for zero-phase smoothing. Butterworth designs live in
// dsp/filter/design/pass.
package biquad
