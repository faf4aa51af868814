package nn

import (
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Parameter represents a trainable parameter.
//
// Parameters are tensors the external optimizer updates between forward
// passes. The gradient slot is filled by the host autodiff system; this
// repo never computes gradients itself.
type Parameter struct {
	name   string        // Parameter name (e.g., "weight_2", "bias")
	tensor *tensor.Dense // The parameter tensor
	grad   *tensor.Dense // Gradient tensor, supplied externally
}

// NewParameter creates a new trainable parameter around an initialized
// tensor.
func NewParameter(name string, t *tensor.Dense) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Dense {
	return p.tensor
}

// Grad returns the gradient tensor, or nil if none has been supplied.
func (p *Parameter) Grad() *tensor.Dense {
	return p.grad
}

// SetGrad stores a gradient tensor. Called by the host training loop.
func (p *Parameter) SetGrad(grad *tensor.Dense) {
	p.grad = grad
}

// ZeroGrad clears the gradient slot.
// Call before each training iteration to avoid stale gradients.
func (p *Parameter) ZeroGrad() {
	p.grad = nil
}
