// Package tensor provides the dense numeric arrays the spectral convolution
// engine operates on.
//
// The package deliberately supports a single element type (float64): the
// coupling coefficients the engine contracts against are computed to double
// precision and every downstream consumer (gonum solves, invariant feature
// extraction) works in float64 as well.
//
// Tensors are dense, row-major, and owned by whoever created them. The
// convolution and nonlinearity stages never mutate their inputs; any
// in-place helper (AddInPlace, ScaleInPlace) is only applied to tensors the
// caller just allocated.
package tensor

import "fmt"

// Dense is a dense row-major float64 tensor.
type Dense struct {
	shape  Shape
	stride []int
	data   []float64
}

// NewDense allocates a zero-filled tensor with the given shape.
func NewDense(shape Shape) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Dense{
		shape:  shape.Clone(),
		stride: shape.Strides(),
		data:   make([]float64, shape.NumElements()),
	}, nil
}

// Shape returns the tensor's shape. The returned slice must not be modified.
func (d *Dense) Shape() Shape {
	return d.shape
}

// Strides returns the tensor's row-major strides.
func (d *Dense) Strides() []int {
	return d.stride
}

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int {
	return len(d.data)
}

// Data returns the backing slice.
// Direct access to underlying memory; use with caution.
func (d *Dense) Data() []float64 {
	return d.data
}

// At returns the element at the given multi-index.
// Panics on rank or bounds violations; indexing errors are programmer
// errors, not runtime conditions.
func (d *Dense) At(idx ...int) float64 {
	return d.data[d.offset(idx)]
}

// Set stores v at the given multi-index.
func (d *Dense) Set(v float64, idx ...int) {
	d.data[d.offset(idx)] = v
}

func (d *Dense) offset(idx []int) int {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(idx), len(d.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= d.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dim %d (size %d)", x, i, d.shape[i]))
		}
		off += x * d.stride[i]
	}
	return off
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return &Dense{shape: d.shape.Clone(), stride: d.shape.Strides(), data: data}
}

// Reshape returns a view of the same data under a new shape.
// The element count must match; panics otherwise.
func (d *Dense) Reshape(dims ...int) *Dense {
	shape := Shape(dims)
	if shape.NumElements() != len(d.data) {
		panic(fmt.Sprintf("tensor: cannot reshape %v (%d elements) to %v (%d elements)",
			d.shape, len(d.data), shape, shape.NumElements()))
	}
	return &Dense{shape: shape.Clone(), stride: shape.Strides(), data: d.data}
}
