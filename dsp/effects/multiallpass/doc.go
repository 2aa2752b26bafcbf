// Package multiallpass implements a block-based multi-stage all-pass phase
// effect.
//
// An [Engine] runs every channel through a cascade of up to MaxStages
// all-pass filters whose center frequencies are spread between a minimum
// and maximum frequency along a [freqdist.Shape] curve. The wet cascade
// output is blended with the dry input and scaled by an output gain:
//
//	out = gain * (mix*wet + (1-mix)*dry)
//
// Control values live in a [Params] store of atomic scalars. A control
// goroutine writes it while the audio goroutine calls
// [Engine.ProcessBlock], which snapshots the store once per block,
// retunes the bank and streams the samples without allocating or locking.
package multiallpass
