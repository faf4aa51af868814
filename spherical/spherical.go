// Copyright 2025 SphConv Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package spherical provides the public API for rotation-equivariant
// spectral convolutions over the sphere and the rotation group.
//
// Signals live in the spherical-harmonic spectral domain as degree-indexed
// coefficient maps. The package exposes the two convolution layers, the
// quadratic nonlinearity coupling degrees into rotation-invariant
// features, and the fixed coupling-coefficient provider they share.
//
// Example:
//
//	conv := spherical.NewS2Convolution(1, 1, 2, 3, 8, true)
//	out, feats, err := conv.Forward(coefficients)
package spherical

import (
	"github.com/sphconv-ml/sphconv/internal/harmonic"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Map holds one coefficient tensor per spherical-harmonic degree.
type Map = harmonic.Map

// NewMap creates an empty coefficient map.
func NewMap() *Map {
	return harmonic.NewMap()
}

// Features accumulates rotation-invariant descriptors across
// nonlinearity stages.
type Features = harmonic.Features

// NewFeatures creates an empty feature accumulator.
func NewFeatures() *Features {
	return harmonic.NewFeatures()
}

// S2Convolution is the spectral convolution of spherical signals.
type S2Convolution = harmonic.S2Convolution

// NewS2Convolution creates a spectral S2 convolution over degrees
// {0, ..., lIn} (even degrees only when symmetric).
func NewS2Convolution(ti, te, lIn, bIn, bOut int, symmetric bool) *S2Convolution {
	return harmonic.NewS2Convolution(ti, te, lIn, bIn, bOut, symmetric)
}

// SO3Convolution is the spectral convolution of rotation-group signals.
type SO3Convolution = harmonic.SO3Convolution

// NewSO3Convolution creates a spectral SO3 convolution over degrees
// {0, ..., lIn} (even degrees only when symmetric).
func NewSO3Convolution(ti, te, lIn, bIn, bOut int, symmetric bool) *SO3Convolution {
	return harmonic.NewSO3Convolution(ti, te, lIn, bIn, bOut, symmetric)
}

// QuadraticNonlinearity couples pairs of degrees into output degrees and
// extracts rotation-invariant features.
type QuadraticNonlinearity = harmonic.QuadraticNonlinearity

// NewQuadraticNonlinearity creates the coupling stage from input degrees
// {0, ..., lIn} to output degrees {0, ..., lOut}. Fails with
// ErrEmptyOutput when an output degree is unreachable.
func NewQuadraticNonlinearity(lIn, lOut int, symmetric bool) (*QuadraticNonlinearity, error) {
	return harmonic.NewQuadraticNonlinearity(lIn, lOut, symmetric)
}

// Coupling returns the fixed coupling tensor for combining degrees l1
// and l2 into degree l, shape [2l+1, 2l1+1, 2l2+1]. The tensor is
// shared and must not be mutated.
func Coupling(l1, l2, l int) *tensor.Dense {
	return harmonic.Coupling(l1, l2, l)
}

// Admissible reports whether the degree triple satisfies the triangle
// inequality |l1-l2| <= l <= l1+l2.
func Admissible(l1, l2, l int) bool {
	return harmonic.Admissible(l1, l2, l)
}

// Sentinel errors of the spectral layers.
var (
	ErrMissingDegree = harmonic.ErrMissingDegree
	ErrShapeMismatch = harmonic.ErrShapeMismatch
	ErrEmptyOutput   = harmonic.ErrEmptyOutput
)
