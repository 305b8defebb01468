// Package linecode maps bit sequences to line-code symbol sequences and back.
//
// Supported schemes are polar NRZ, unipolar NRZ, RZ, Manchester, Miller and
// HDBn. NRZ, unipolar NRZ and HDBn emit one symbol per bit; RZ, Manchester
// and Miller emit two half-symbols per bit. Miller and HDBn carry state
// across bits and are written as explicit folds over that state.
package linecode
