package harmonic

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/parallel"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// S2Convolution is the spectral convolution between a spherical signal and
// a learnable spherical kernel.
//
// For every degree l the input coefficients [N, TI, TE, Bin, 2l+1] are
// contracted over the channel axis with the degree's kernel
// [TI, TE, Bin, Bout, 2l+1]:
//
//	out[n,a,b,o,m,k] = sum_i x[n,a,b,i,m] * w[a,b,i,o,k]
//
// The input and kernel order axes stay free, so the output lives on the
// SO3 stage: [N, TI, TE, Bout, 2l+1, 2l+1]. The bias is added to the
// degree-0 output only; nonzero degrees must remain zero-mean under
// rotation, so biasing them would break equivariance.
type S2Convolution struct {
	ti, te    int
	lIn       int
	bIn, bOut int
	step      int
	weights   []*nn.Parameter // indexed by l/step, shape [TI, TE, Bin, Bout, 2l+1]
	bias      *nn.Parameter   // [1, TI, TE, Bout, 1, 1]
	par       parallel.Config
}

// NewS2Convolution creates a spectral S2 convolution.
//
// symmetric restricts the degree set to even degrees {0, 2, ..., lIn},
// which is always the case for antipodally symmetric signals. Weights are
// initialized from U(0, 0.1) and the bias to zeros.
func NewS2Convolution(ti, te, lIn, bIn, bOut int, symmetric bool) *S2Convolution {
	c := &S2Convolution{
		ti:   ti,
		te:   te,
		lIn:  lIn,
		bIn:  bIn,
		bOut: bOut,
		step: degreeStep(symmetric),
		par:  parallel.DefaultConfig(),
	}
	for l := 0; l <= lIn; l += c.step {
		w := nn.Uniform(tensor.Shape{ti, te, bIn, bOut, 2*l + 1}, 0.1)
		c.weights = append(c.weights, nn.NewParameter(fmt.Sprintf("weight_%d", l), w))
	}
	c.bias = nn.NewParameter("bias", tensor.Zeros(tensor.Shape{1, ti, te, bOut, 1, 1}))
	return c
}

// Degrees returns the degree set this convolution operates on, ascending.
func (c *S2Convolution) Degrees() []int {
	out := make([]int, 0, len(c.weights))
	for l := 0; l <= c.lIn; l += c.step {
		out = append(out, l)
	}
	return out
}

// Weight returns the kernel parameter for degree l.
// Panics when l is outside the configured degree set.
func (c *S2Convolution) Weight(l int) *nn.Parameter {
	return c.weights[c.weightIndex(l)]
}

// Bias returns the degree-0 bias parameter.
func (c *S2Convolution) Bias() *nn.Parameter {
	return c.bias
}

// Parameters returns all kernels plus the bias.
func (c *S2Convolution) Parameters() []*nn.Parameter {
	params := make([]*nn.Parameter, 0, len(c.weights)+1)
	params = append(params, c.weights...)
	return append(params, c.bias)
}

// Forward applies the convolution to an S2-stage map.
//
// Returns the SO3-stage output map together with a fresh, empty invariant
// feature accumulator for the downstream nonlinearity stages.
func (c *S2Convolution) Forward(in *Map) (*Map, *Features, error) {
	out := NewMap()
	for l := 0; l <= c.lIn; l += c.step {
		x, err := in.Get(l)
		if err != nil {
			return nil, nil, fmt.Errorf("s2 convolution: %w", err)
		}
		m := 2*l + 1
		shape := x.Shape()
		if len(shape) != 5 || shape[1] != c.ti || shape[2] != c.te || shape[3] != c.bIn || shape[4] != m {
			return nil, nil, fmt.Errorf("s2 convolution degree %d: %w: got %v, want [N %d %d %d %d]",
				l, ErrShapeMismatch, shape, c.ti, c.te, c.bIn, m)
		}
		n := shape[0]

		y := tensor.Zeros(tensor.Shape{n, c.ti, c.te, c.bOut, m, m})
		xd, wd, yd := x.Data(), c.Weight(l).Tensor().Data(), y.Data()
		parallel.ForSites(n, c.ti*c.te, func(ni, site int) {
			a, b := site/c.te, site%c.te
			xBase := ((ni*c.ti+a)*c.te + b) * c.bIn * m
			wBase := (a*c.te + b) * c.bIn * c.bOut * m
			yBase := ((ni*c.ti+a)*c.te + b) * c.bOut * m * m
			for o := 0; o < c.bOut; o++ {
				for i := 0; i < c.bIn; i++ {
					xRow := xd[xBase+i*m : xBase+(i+1)*m]
					wRow := wd[wBase+(i*c.bOut+o)*m : wBase+(i*c.bOut+o+1)*m]
					for mi := 0; mi < m; mi++ {
						xv := xRow[mi]
						if xv == 0 {
							continue
						}
						yRow := yd[yBase+(o*m+mi)*m : yBase+(o*m+mi+1)*m]
						for k := 0; k < m; k++ {
							yRow[k] += xv * wRow[k]
						}
					}
				}
			}
		}, c.par)

		if l == 0 {
			if err := y.AddInPlace(c.bias.Tensor()); err != nil {
				return nil, nil, fmt.Errorf("s2 convolution bias: %w", err)
			}
		}
		out.Set(l, y)
	}
	return out, NewFeatures(), nil
}

// SO3Convolution is the spectral convolution between a rotation-group
// signal and a learnable rotation-group kernel.
//
// For every degree l the input [N, TI, TE, Bin, 2l+1, 2l+1] is contracted
// over the channel axis and one order axis with the kernel
// [TI, TE, Bin, Bout, 2l+1, 2l+1], then scaled by (2l+1):
//
//	out[n,a,b,o,m,j] = (2l+1) * sum_{i,k} x[n,a,b,i,m,k] * w[a,b,i,o,k,j]
//
// The (2l+1) factor is the Peter-Weyl normalization keeping per-degree
// energy comparable when integrating over the rotation group. Bias is
// added to the degree-0 output only.
type SO3Convolution struct {
	ti, te    int
	lIn       int
	bIn, bOut int
	step      int
	weights   []*nn.Parameter // indexed by l/step, shape [TI, TE, Bin, Bout, 2l+1, 2l+1]
	bias      *nn.Parameter   // [1, TI, TE, Bout, 1, 1]
	par       parallel.Config
}

// NewSO3Convolution creates a spectral SO3 convolution. Initialization
// matches NewS2Convolution.
func NewSO3Convolution(ti, te, lIn, bIn, bOut int, symmetric bool) *SO3Convolution {
	c := &SO3Convolution{
		ti:   ti,
		te:   te,
		lIn:  lIn,
		bIn:  bIn,
		bOut: bOut,
		step: degreeStep(symmetric),
		par:  parallel.DefaultConfig(),
	}
	for l := 0; l <= lIn; l += c.step {
		m := 2*l + 1
		w := nn.Uniform(tensor.Shape{ti, te, bIn, bOut, m, m}, 0.1)
		c.weights = append(c.weights, nn.NewParameter(fmt.Sprintf("weight_%d", l), w))
	}
	c.bias = nn.NewParameter("bias", tensor.Zeros(tensor.Shape{1, ti, te, bOut, 1, 1}))
	return c
}

// Degrees returns the degree set this convolution operates on, ascending.
func (c *SO3Convolution) Degrees() []int {
	out := make([]int, 0, len(c.weights))
	for l := 0; l <= c.lIn; l += c.step {
		out = append(out, l)
	}
	return out
}

// Weight returns the kernel parameter for degree l.
func (c *SO3Convolution) Weight(l int) *nn.Parameter {
	return c.weights[c.weightIndex(l)]
}

// Bias returns the degree-0 bias parameter.
func (c *SO3Convolution) Bias() *nn.Parameter {
	return c.bias
}

// Parameters returns all kernels plus the bias.
func (c *SO3Convolution) Parameters() []*nn.Parameter {
	params := make([]*nn.Parameter, 0, len(c.weights)+1)
	params = append(params, c.weights...)
	return append(params, c.bias)
}

// Forward applies the convolution to an SO3-stage map. The invariant
// feature accumulator passes through untouched; this stage contributes no
// features.
func (c *SO3Convolution) Forward(in *Map, feats *Features) (*Map, *Features, error) {
	out := NewMap()
	for l := 0; l <= c.lIn; l += c.step {
		x, err := in.Get(l)
		if err != nil {
			return nil, nil, fmt.Errorf("so3 convolution: %w", err)
		}
		m := 2*l + 1
		shape := x.Shape()
		if len(shape) != 6 || shape[1] != c.ti || shape[2] != c.te || shape[3] != c.bIn ||
			shape[4] != m || shape[5] != m {
			return nil, nil, fmt.Errorf("so3 convolution degree %d: %w: got %v, want [N %d %d %d %d %d]",
				l, ErrShapeMismatch, shape, c.ti, c.te, c.bIn, m, m)
		}
		n := shape[0]

		y := tensor.Zeros(tensor.Shape{n, c.ti, c.te, c.bOut, m, m})
		xd, wd, yd := x.Data(), c.Weight(l).Tensor().Data(), y.Data()
		scale := float64(2*l + 1)
		parallel.ForSites(n, c.ti*c.te, func(ni, site int) {
			a, b := site/c.te, site%c.te
			xBase := ((ni*c.ti+a)*c.te + b) * c.bIn * m * m
			wBase := (a*c.te + b) * c.bIn * c.bOut * m * m
			yBase := ((ni*c.ti+a)*c.te + b) * c.bOut * m * m
			for o := 0; o < c.bOut; o++ {
				for i := 0; i < c.bIn; i++ {
					for mi := 0; mi < m; mi++ {
						xRow := xd[xBase+(i*m+mi)*m : xBase+(i*m+mi+1)*m]
						yRow := yd[yBase+(o*m+mi)*m : yBase+(o*m+mi+1)*m]
						for k := 0; k < m; k++ {
							xv := xRow[k]
							if xv == 0 {
								continue
							}
							wRow := wd[wBase+((i*c.bOut+o)*m+k)*m : wBase+((i*c.bOut+o)*m+k+1)*m]
							for j := 0; j < m; j++ {
								yRow[j] += xv * wRow[j]
							}
						}
					}
				}
			}
			ySite := yd[yBase : yBase+c.bOut*m*m]
			for i := range ySite {
				ySite[i] *= scale
			}
		}, c.par)

		if l == 0 {
			if err := y.AddInPlace(c.bias.Tensor()); err != nil {
				return nil, nil, fmt.Errorf("so3 convolution bias: %w", err)
			}
		}
		out.Set(l, y)
	}
	return out, feats, nil
}

func (c *S2Convolution) weightIndex(l int) int {
	if l < 0 || l > c.lIn || l%c.step != 0 {
		panic(fmt.Sprintf("harmonic: degree %d outside configured set (lIn=%d, step=%d)", l, c.lIn, c.step))
	}
	return l / c.step
}

func (c *SO3Convolution) weightIndex(l int) int {
	if l < 0 || l > c.lIn || l%c.step != 0 {
		panic(fmt.Sprintf("harmonic: degree %d outside configured set (lIn=%d, step=%d)", l, c.lIn, c.step))
	}
	return l / c.step
}

func degreeStep(symmetric bool) int {
	if symmetric {
		return 2
	}
	return 1
}
