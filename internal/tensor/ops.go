package tensor

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/parallel"
)

// Add returns a + b with NumPy-style broadcasting.
func Add(a, b *Dense) (*Dense, error) {
	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	out := Zeros(shape)
	idx := make([]int, len(shape))
	for i := range out.data {
		out.data[i] = a.data[broadcastOffset(a, shape, idx)] + b.data[broadcastOffset(b, shape, idx)]
		nextIndex(idx, shape)
	}
	return out, nil
}

// AddInPlace adds b into d, broadcasting b up to d's shape.
// The broadcast of the two shapes must equal d's shape.
func (d *Dense) AddInPlace(b *Dense) error {
	shape, err := BroadcastShapes(d.shape, b.shape)
	if err != nil {
		return err
	}
	if !shape.Equal(d.shape) {
		return fmt.Errorf("cannot add %v into %v in place", b.shape, d.shape)
	}
	idx := make([]int, len(shape))
	for i := range d.data {
		d.data[i] += b.data[broadcastOffset(b, shape, idx)]
		nextIndex(idx, shape)
	}
	return nil
}

// Scale returns d multiplied by the scalar s.
func (d *Dense) Scale(s float64) *Dense {
	out := d.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// ScaleInPlace multiplies every element by s.
func (d *Dense) ScaleInPlace(s float64) {
	for i := range d.data {
		d.data[i] *= s
	}
}

// MatMul computes the 2-D matrix product a @ b.
func MatMul(a, b *Dense) (*Dense, error) {
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("MatMul expects 2-D operands, got %v and %v", a.shape, b.shape)
	}
	m, k := a.shape[0], a.shape[1]
	k2, n := b.shape[0], b.shape[1]
	if k != k2 {
		return nil, fmt.Errorf("MatMul inner dimensions disagree: %v @ %v", a.shape, b.shape)
	}
	out := Zeros(Shape{m, n})
	parallel.For(m, func(i int) {
		row := out.data[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a.data[i*k+p]
			if av == 0 {
				continue
			}
			brow := b.data[p*n : (p+1)*n]
			for j := 0; j < n; j++ {
				row[j] += av * brow[j]
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// Transpose returns the transpose of a 2-D tensor.
func (d *Dense) Transpose() *Dense {
	if len(d.shape) != 2 {
		panic(fmt.Sprintf("Transpose expects a 2-D tensor, got %v", d.shape))
	}
	m, n := d.shape[0], d.shape[1]
	out := Zeros(Shape{n, m})
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			out.data[j*m+i] = d.data[i*n+j]
		}
	}
	return out
}

// Cat concatenates tensors along a dimension. All operands must share rank
// and agree on every extent except the concatenation dimension.
func Cat(tensors []*Dense, dim int) (*Dense, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("Cat of zero tensors")
	}
	first := tensors[0].shape
	if dim < 0 || dim >= len(first) {
		return nil, fmt.Errorf("Cat dim %d out of range for rank %d", dim, len(first))
	}
	total := 0
	for _, t := range tensors {
		if len(t.shape) != len(first) {
			return nil, fmt.Errorf("Cat rank mismatch: %v vs %v", first, t.shape)
		}
		for i := range first {
			if i != dim && t.shape[i] != first[i] {
				return nil, fmt.Errorf("Cat extent mismatch at dim %d: %v vs %v", i, first, t.shape)
			}
		}
		total += t.shape[dim]
	}

	shape := first.Clone()
	shape[dim] = total
	out := Zeros(shape)

	// Copy contiguous [dim:] blocks for each leading index.
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= first[i]
	}
	inner := 1
	for i := dim + 1; i < len(first); i++ {
		inner *= first[i]
	}
	rowLen := total * inner
	for o := 0; o < outer; o++ {
		off := o * rowLen
		for _, t := range tensors {
			block := t.shape[dim] * inner
			copy(out.data[off:off+block], t.data[o*block:(o+1)*block])
			off += block
		}
	}
	return out, nil
}

// Flatten collapses all dimensions from startDim onward into one.
func (d *Dense) Flatten(startDim int) *Dense {
	if startDim < 0 || startDim >= len(d.shape) {
		panic(fmt.Sprintf("Flatten start dim %d out of range for rank %d", startDim, len(d.shape)))
	}
	shape := make(Shape, 0, startDim+1)
	shape = append(shape, d.shape[:startDim]...)
	tail := 1
	for _, dim := range d.shape[startDim:] {
		tail *= dim
	}
	shape = append(shape, tail)
	return d.Reshape(shape...)
}

// broadcastOffset maps a multi-index in the broadcast shape to a flat offset
// in t, treating t's size-1 (or missing leading) dimensions as pinned to 0.
func broadcastOffset(t *Dense, shape Shape, idx []int) int {
	off := 0
	lead := len(shape) - len(t.shape)
	for i, x := range idx {
		ti := i - lead
		if ti < 0 || t.shape[ti] == 1 {
			continue
		}
		off += x * t.stride[ti]
	}
	return off
}

// nextIndex advances a row-major multi-index within shape.
func nextIndex(idx []int, shape Shape) {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return
		}
		idx[i] = 0
	}
}
