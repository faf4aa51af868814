// Package nn implements the dense neural network modules surrounding the
// spectral convolution core.
//
// This package provides the building blocks for the decoder head that
// consumes the rotation-invariant feature vector:
//   - Module interface: base interface for dense components
//   - Parameter: trainable parameters with an externally filled gradient slot
//   - Linear: fully connected layer
//   - LeakyReLU / ReLU: activations
//   - Sequential: container for stacking layers
//
// Design inspired by PyTorch's nn.Module, adapted for Go with explicit
// parameter and state-dict plumbing.
package nn

import (
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Module is the base interface for dense network components.
//
// Modules can be composed to build the decoder head:
//
//	head := nn.NewSequential(
//	    nn.NewLinear(276, 100),
//	    nn.NewLeakyReLU(0.2),
//	    nn.NewLinear(100, 200),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	// Linear expects [batch, in_features].
	Forward(input *tensor.Dense) *tensor.Dense

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter

	// StateDict returns a map of parameter names to tensors.
	StateDict() map[string]*tensor.Dense

	// LoadStateDict loads parameters from a state dictionary.
	LoadStateDict(state map[string]*tensor.Dense) error
}
