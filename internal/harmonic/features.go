package harmonic

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Features accumulates the rotation-invariant descriptors emitted by the
// quadratic nonlinearity stages.
//
// The builder starts empty; each stage appends one [N, ·] block per output
// degree in ascending degree order. Vector concatenates everything along
// the feature axis. Starting from a builder instead of an optional tensor
// removes the nil-concatenation branch from the nonlinearity's inner loop.
type Features struct {
	blocks []*tensor.Dense
}

// NewFeatures creates an empty accumulator.
func NewFeatures() *Features {
	return &Features{}
}

// Append adds one [N, ·] feature block.
func (f *Features) Append(block *tensor.Dense) {
	f.blocks = append(f.blocks, block)
}

// Len returns the number of appended blocks.
func (f *Features) Len() int {
	return len(f.blocks)
}

// Dim returns the total feature dimension across blocks.
func (f *Features) Dim() int {
	dim := 0
	for _, b := range f.blocks {
		dim += b.Shape()[1]
	}
	return dim
}

// Vector concatenates all blocks into one [N, Dim] tensor.
// Fails when nothing has been appended yet.
func (f *Features) Vector() (*tensor.Dense, error) {
	if len(f.blocks) == 0 {
		return nil, fmt.Errorf("harmonic: empty feature accumulator")
	}
	return tensor.Cat(f.blocks, 1)
}
