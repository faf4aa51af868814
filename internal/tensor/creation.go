package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
// Panics on an invalid shape; creation with a computed shape is a
// programmer error when the shape is malformed.
func Zeros(shape Shape) *Dense {
	d, err := NewDense(shape)
	if err != nil {
		panic(err)
	}
	return d
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) *Dense {
	d := Zeros(shape)
	for i := range d.data {
		d.data[i] = value
	}
	return d
}

// Rand creates a tensor with values drawn from U(0, scale).
func Rand(shape Shape, scale float64) *Dense {
	d := Zeros(shape)
	for i := range d.data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		d.data[i] = rand.Float64() * scale
	}
	return d
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn(shape Shape) *Dense {
	d := Zeros(shape)
	for i := range d.data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		d.data[i] = rand.NormFloat64()
	}
	return d
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice(data []float64, shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	d := Zeros(shape)
	copy(d.data, data)
	return d, nil
}
