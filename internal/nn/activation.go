package nn

import (
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation.
func (r *ReLU) Forward(input *tensor.Dense) *tensor.Dense {
	out := input.Clone()
	data := out.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (r *ReLU) StateDict() map[string]*tensor.Dense {
	return map[string]*tensor.Dense{}
}

// LoadStateDict is a no-op for parameterless modules.
func (r *ReLU) LoadStateDict(map[string]*tensor.Dense) error {
	return nil
}

// LeakyReLU is a leaky rectified linear activation module.
//
// Applies the element-wise function:
//
//	f(x) = x            if x >= 0
//	f(x) = slope * x    otherwise
//
// The decoder head uses slope 0.2 throughout.
type LeakyReLU struct {
	slope float64
}

// NewLeakyReLU creates a new LeakyReLU with the given negative slope.
func NewLeakyReLU(slope float64) *LeakyReLU {
	return &LeakyReLU{slope: slope}
}

// Forward applies the leaky rectification.
func (l *LeakyReLU) Forward(input *tensor.Dense) *tensor.Dense {
	out := input.Clone()
	data := out.Data()
	for i, v := range data {
		if v < 0 {
			data[i] = l.slope * v
		}
	}
	return out
}

// Parameters returns an empty slice (LeakyReLU has no trainable parameters).
func (l *LeakyReLU) Parameters() []*Parameter {
	return nil
}

// StateDict returns an empty map.
func (l *LeakyReLU) StateDict() map[string]*tensor.Dense {
	return map[string]*tensor.Dense{}
}

// LoadStateDict is a no-op for parameterless modules.
func (l *LeakyReLU) LoadStateDict(map[string]*tensor.Dense) error {
	return nil
}

// Slope returns the configured negative slope.
func (l *LeakyReLU) Slope() float64 {
	return l.slope
}
