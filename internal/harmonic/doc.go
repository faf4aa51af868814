// Package harmonic implements rotation-equivariant spectral convolutions
// over signals on the sphere (S2) and the rotation group (SO3).
//
// Signals are represented by their real spherical-harmonic coefficients,
// grouped per even degree l in a Map. Two tensor layouts flow through the
// pipeline:
//
//	S2 stage:  [N, TI, TE, C, 2l+1]          one harmonic order axis
//	SO3 stage: [N, TI, TE, C, 2l+1, 2l+1]    row and column order axes
//
// S2Convolution lifts an S2-stage map to the SO3 stage; SO3Convolution and
// QuadraticNonlinearity stay on it. Each QuadraticNonlinearity stage also
// appends rotation-invariant per-degree energies to a Features builder,
// which the downstream dense head consumes.
//
// All stages are pure: they allocate fresh output maps and never mutate
// their inputs, so upstream maps can be reused or cached freely.
package harmonic
