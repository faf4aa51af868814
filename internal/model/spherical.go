package model

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sphconv-ml/sphconv/internal/config"
	"github.com/sphconv-ml/sphconv/internal/harmonic"
	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// SphericalDecoder is the full rotation-equivariant pipeline: one S2
// convolution, then per stage a quadratic nonlinearity and an SO3
// convolution, a final nonlinearity, and a dense head over the
// accumulated invariant features.
//
// The depth comes entirely from the config: Degrees[k] and Shells[k]
// parameterize stage k, so len(Degrees)-1 convolution stages are built.
type SphericalDecoder struct {
	s2        *harmonic.S2Convolution
	so3       []*harmonic.SO3Convolution
	nonlinear []*harmonic.QuadraticNonlinearity
	head      *nn.Sequential
	headIn    int
}

// NewSphericalDecoder builds the pipeline described by cfg. A nil logger
// disables construction logging.
func NewSphericalDecoder(cfg *config.Config, log *zap.Logger) (*SphericalDecoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spherical decoder: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &SphericalDecoder{headIn: cfg.HeadInputSize}

	d.s2 = harmonic.NewS2Convolution(cfg.NTI, cfg.NTE, cfg.Degrees[0], cfg.Shells[0], cfg.Shells[1], true)
	log.Debug("s2 convolution",
		zap.Int("l_in", cfg.Degrees[0]), zap.Int("b_in", cfg.Shells[0]), zap.Int("b_out", cfg.Shells[1]))

	for k := 0; k < cfg.Stages(); k++ {
		q, err := harmonic.NewQuadraticNonlinearity(cfg.Degrees[k], cfg.Degrees[k+1], true)
		if err != nil {
			return nil, fmt.Errorf("spherical decoder stage %d: %w", k, err)
		}
		d.nonlinear = append(d.nonlinear, q)

		if k+2 < len(cfg.Degrees) {
			c := harmonic.NewSO3Convolution(cfg.NTI, cfg.NTE, cfg.Degrees[k+1], cfg.Shells[k+1], cfg.Shells[k+2], true)
			d.so3 = append(d.so3, c)
			log.Debug("so3 convolution", zap.Int("stage", k+1),
				zap.Int("l_in", cfg.Degrees[k+1]), zap.Int("b_in", cfg.Shells[k+1]), zap.Int("b_out", cfg.Shells[k+2]))
		}
	}

	d.head = nn.NewSequential(
		nn.NewLinear(cfg.HeadInputSize, 100),
		nn.NewLeakyReLU(0.2),
		nn.NewLinear(100, 200),
		nn.NewLeakyReLU(0.2),
		nn.NewLinear(200, cfg.HeadOutputSize),
		nn.NewLeakyReLU(0.2),
	)
	for i := 0; i < d.head.Len(); i++ {
		if l, ok := d.head.Module(i).(*nn.Linear); ok {
			nn.InitOrthogonal(l, 0.01)
		}
	}
	log.Debug("dense head", zap.Int("in", cfg.HeadInputSize), zap.Int("out", cfg.HeadOutputSize))

	return d, nil
}

// Forward runs the pipeline on an S2-stage harmonic map and returns the
// dense head's output over the accumulated invariant features.
func (d *SphericalDecoder) Forward(in *harmonic.Map) (*tensor.Dense, error) {
	m, feats, err := d.s2.Forward(in)
	if err != nil {
		return nil, err
	}
	m, feats, err = d.nonlinear[0].Forward(m, feats)
	if err != nil {
		return nil, err
	}
	for k, conv := range d.so3 {
		m, feats, err = conv.Forward(m, feats)
		if err != nil {
			return nil, err
		}
		m, feats, err = d.nonlinear[k+1].Forward(m, feats)
		if err != nil {
			return nil, err
		}
	}

	v, err := feats.Vector()
	if err != nil {
		return nil, err
	}
	if v.Shape()[1] != d.headIn {
		return nil, fmt.Errorf("spherical decoder: %w: invariant features have dim %d, head expects %d",
			harmonic.ErrShapeMismatch, v.Shape()[1], d.headIn)
	}
	return d.head.Forward(v), nil
}

// Parameters returns every learnable parameter of the pipeline.
func (d *SphericalDecoder) Parameters() []*nn.Parameter {
	params := d.s2.Parameters()
	for _, c := range d.so3 {
		params = append(params, c.Parameters()...)
	}
	return append(params, d.head.Parameters()...)
}

// FeatureDim returns the invariant feature dimension the pipeline
// produces for the configured degrees and shells, which must match the
// head input size. One nonlinearity stage contributes
// TI*TE*C blocks of size 1 per output degree.
func FeatureDim(nTI, nTE int, degrees, shells []int) int {
	dim := 0
	for k := 1; k < len(degrees); k++ {
		dim += (degrees[k]/2 + 1) * nTI * nTE * shells[k]
	}
	return dim
}
