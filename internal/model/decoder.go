// Package model composes the spectral layers into runnable networks.
package model

import (
	"go.uber.org/zap"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Decoder is a dense decoder whose hidden layer sizes interpolate
// linearly between the input and output size, each layer followed by a
// LeakyReLU activation.
type Decoder struct {
	net   *nn.Sequential
	sizes []int
}

// NewDecoder builds a decoder from inputSize to outputSize with
// hiddenLayers intermediate layers. Zero hidden layers connects input
// directly to output.
func NewDecoder(inputSize, outputSize, hiddenLayers int, slope float64, log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	sizes := interpolateSizes(inputSize, outputSize, hiddenLayers)
	log.Debug("decoder layer sizes", zap.Ints("sizes", sizes))

	net := nn.NewSequential()
	for i := 1; i < len(sizes); i++ {
		net.Add(nn.NewLinear(sizes[i-1], sizes[i]))
		net.Add(nn.NewLeakyReLU(slope))
	}
	return &Decoder{net: net, sizes: sizes}
}

// Forward runs the decoder on a [N, inputSize] batch.
func (d *Decoder) Forward(x *tensor.Dense) *tensor.Dense {
	return d.net.Forward(x)
}

// Parameters returns all layer parameters.
func (d *Decoder) Parameters() []*nn.Parameter {
	return d.net.Parameters()
}

// LayerSizes returns the interpolated sizes, input first. The caller
// owns the returned slice.
func (d *Decoder) LayerSizes() []int {
	out := make([]int, len(d.sizes))
	copy(out, d.sizes)
	return out
}

// interpolateSizes places n evenly spaced sizes between in and out,
// truncating fractional sizes toward zero.
func interpolateSizes(in, out, hidden int) []int {
	sizes := make([]int, hidden+2)
	for i := range sizes {
		sizes[i] = in + int(float64(out-in)*float64(i)/float64(hidden+1))
	}
	sizes[len(sizes)-1] = out
	return sizes
}
