// Package allpass provides first- and second-order all-pass filter
// primitives and a multi-channel cascade bank built from them.
//
// All-pass filters pass every frequency at unity gain and only shift phase.
// Cascading many of them with spread center frequencies produces a
// frequency-dependent delay without coloring the magnitude response.
//
// [FirstOrder] implements
//
//	H(z) = (a1 + z^-1) / (1 + a1 z^-1),  a1 = (tan(pi f/fs) - 1) / (tan(pi f/fs) + 1)
//
// [SecondOrder] implements the symmetric two-coefficient form
//
//	H(z) = (c2 + c1 z^-1 + z^-2) / (1 + c1 z^-1 + c2 z^-2)
//
// [Bank] owns channels x maxStages instances of both primitives, allocated
// once. [Bank.Retune] recomputes coefficients from a [Tuning] and
// [Bank.ProcessSample] runs the cascade; neither allocates.
package allpass
