package nn

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [batch, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//
// Weights default to Xavier/Glorot initialization and biases to zeros;
// the decoder head re-initializes its layers orthogonally afterwards.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [out_features, in_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer with Xavier-initialized weights and
// zero biases.
func NewLinear(inFeatures, outFeatures int) *Linear {
	weight := NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}))
	bias := NewParameter("bias", tensor.Zeros(tensor.Shape{outFeatures}))

	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch, in_features]. Output shape: [batch, out_features].
func (l *Linear) Forward(input *tensor.Dense) *tensor.Dense {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	output, err := tensor.MatMul(input, l.weight.Tensor().Transpose())
	if err != nil {
		panic(err)
	}

	if l.bias != nil {
		if err := output.AddInPlace(l.bias.Tensor().Reshape(1, l.outFeatures)); err != nil {
			panic(err)
		}
	}
	return output
}

// Parameters returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// StateDict returns a map of parameter names to tensors.
func (l *Linear) StateDict() map[string]*tensor.Dense {
	state := map[string]*tensor.Dense{"weight": l.weight.Tensor()}
	if l.bias != nil {
		state["bias"] = l.bias.Tensor()
	}
	return state
}

// LoadStateDict loads parameters from a state dictionary.
func (l *Linear) LoadStateDict(state map[string]*tensor.Dense) error {
	weight, ok := state["weight"]
	if !ok {
		return fmt.Errorf("missing weight in state dict")
	}
	expected := tensor.Shape{l.outFeatures, l.inFeatures}
	if !weight.Shape().Equal(expected) {
		return fmt.Errorf("weight shape mismatch: expected %v, got %v", expected, weight.Shape())
	}
	copy(l.weight.Tensor().Data(), weight.Data())

	if l.bias != nil {
		bias, ok := state["bias"]
		if !ok {
			return fmt.Errorf("missing bias in state dict")
		}
		if !bias.Shape().Equal(tensor.Shape{l.outFeatures}) {
			return fmt.Errorf("bias shape mismatch: expected [%d], got %v", l.outFeatures, bias.Shape())
		}
		copy(l.bias.Tensor().Data(), bias.Data())
	}
	return nil
}
