package harmonic

import (
	"fmt"
	"sort"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Map holds one coefficient tensor per spherical-harmonic degree.
//
// Degrees are kept in ascending order. All tensors in one map share their
// batch, TI, TE and channel extents; only the harmonic order axes vary
// with the degree. That consistency is a producer invariant, not enforced
// here: the stage that built the map already knows the shapes.
//
// A Map is populated with Set during construction by a single stage and
// treated as immutable afterwards.
type Map struct {
	degrees []int
	tensors map[int]*tensor.Dense
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{tensors: make(map[int]*tensor.Dense)}
}

// Set stores the tensor for degree l. Construction-time only; replacing a
// degree on a map another stage already consumes breaks the immutability
// contract.
func (m *Map) Set(l int, t *tensor.Dense) {
	if _, ok := m.tensors[l]; !ok {
		m.degrees = append(m.degrees, l)
		sort.Ints(m.degrees)
	}
	m.tensors[l] = t
}

// Get returns the tensor for degree l, or ErrMissingDegree.
func (m *Map) Get(l int) (*tensor.Dense, error) {
	t, ok := m.tensors[l]
	if !ok {
		return nil, fmt.Errorf("%w: l=%d (have %v)", ErrMissingDegree, l, m.degrees)
	}
	return t, nil
}

// Has reports whether degree l is present.
func (m *Map) Has(l int) bool {
	_, ok := m.tensors[l]
	return ok
}

// Degrees returns the degrees present, ascending. The caller owns the
// returned slice.
func (m *Map) Degrees() []int {
	out := make([]int, len(m.degrees))
	copy(out, m.degrees)
	return out
}

// Len returns the number of degrees present.
func (m *Map) Len() int {
	return len(m.degrees)
}
