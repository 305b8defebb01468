// Package fir holds the FIR pieces of pulse shaping: the [RaisedCosine]
// design and a streaming [Filter] that reports its group delay.
package fir
