// Package pass designs low-pass biquad cascades (RBJ sections and
// Butterworth cascades of arbitrary order).
package pass
