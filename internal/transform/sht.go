package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/sphconv-ml/sphconv/internal/harmonic"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// FitMethod selects how SignalToS2 inverts the basis matrix.
type FitMethod string

const (
	// FitLeastSquares solves the plain normal equations.
	FitLeastSquares FitMethod = "lms"
	// FitTikhonov adds Laplace-Beltrami regularization, damping high
	// degrees when the sampling is sparse or noisy.
	FitTikhonov FitMethod = "lms_tikhonov"
)

// tikhonovLambda weights the Laplace-Beltrami penalty. The value is the
// one commonly used for diffusion signal fitting.
const tikhonovLambda = 0.006

// SignalToS2 projects per-shell spherical samples onto the even-degree
// real spherical-harmonic basis.
//
// One fit matrix is precomputed per shell from that shell's sampling
// directions, so Forward is a plain matrix product per shell.
type SignalToS2 struct {
	fit    []*mat.Dense // per shell, [nCoef, points]
	lMax   int
	nCoef  int
	points int
}

// NewSignalToS2 precomputes the per-shell fit matrices.
//
// gradients holds one direction set per shell; every shell must sample
// the same number of directions. The basis must not be overdetermined by
// the sampling: fewer directions than coefficients is an error.
func NewSignalToS2(gradients [][][3]float64, lMax int, method FitMethod) (*SignalToS2, error) {
	if len(gradients) == 0 {
		return nil, fmt.Errorf("transform: no gradient shells")
	}
	if lMax < 0 || lMax%2 != 0 {
		return nil, fmt.Errorf("transform: lMax must be even and non-negative, got %d", lMax)
	}
	switch method {
	case FitLeastSquares, FitTikhonov:
	default:
		return nil, fmt.Errorf("transform: unknown fit method %q", method)
	}

	nCoef := NumCoefficients(lMax)
	points := len(gradients[0])
	if points < nCoef {
		return nil, fmt.Errorf("transform: %d directions cannot determine %d coefficients", points, nCoef)
	}

	t := &SignalToS2{
		fit:    make([]*mat.Dense, len(gradients)),
		lMax:   lMax,
		nCoef:  nCoef,
		points: points,
	}
	for s, dirs := range gradients {
		if len(dirs) != points {
			return nil, fmt.Errorf("transform: shell %d has %d directions, shell 0 has %d", s, len(dirs), points)
		}
		b := basisMatrix(dirs, lMax)

		var gram mat.Dense
		gram.Mul(b.T(), b)
		if method == FitTikhonov {
			addLaplaceBeltrami(&gram, lMax, tikhonovLambda)
		}

		var fit mat.Dense
		if err := fit.Solve(&gram, b.T()); err != nil {
			return nil, fmt.Errorf("transform: shell %d basis is singular: %w", s, err)
		}
		t.fit[s] = &fit
	}
	return t, nil
}

// NumCoefficients returns the coefficient count per shell.
func (t *SignalToS2) NumCoefficients() int { return t.nCoef }

// Forward fits x of shape [N, shells, points] and returns coefficients
// of shape [N, shells, nCoef].
func (t *SignalToS2) Forward(x *tensor.Dense) (*tensor.Dense, error) {
	shape := x.Shape()
	if len(shape) != 3 || shape[1] != len(t.fit) || shape[2] != t.points {
		return nil, fmt.Errorf("transform: %w: got %v, want [N %d %d]",
			harmonic.ErrShapeMismatch, shape, len(t.fit), t.points)
	}
	n := shape[0]

	out := tensor.Zeros(tensor.Shape{n, len(t.fit), t.nCoef})
	xd, od := x.Data(), out.Data()
	for ni := 0; ni < n; ni++ {
		for s := range t.fit {
			sig := mat.NewVecDense(t.points, xd[(ni*len(t.fit)+s)*t.points:(ni*len(t.fit)+s+1)*t.points])
			coef := mat.NewVecDense(t.nCoef, od[(ni*len(t.fit)+s)*t.nCoef:(ni*len(t.fit)+s+1)*t.nCoef])
			coef.MulVec(t.fit[s], sig)
		}
	}
	return out, nil
}

// S2ToSignal reprojects even-degree coefficients back onto the sampling
// directions of each shell.
type S2ToSignal struct {
	basis  []*mat.Dense // per shell, [points, nCoef]
	lMax   int
	nCoef  int
	points int
}

// NewS2ToSignal precomputes the per-shell basis matrices.
func NewS2ToSignal(gradients [][][3]float64, lMax int) (*S2ToSignal, error) {
	if len(gradients) == 0 {
		return nil, fmt.Errorf("transform: no gradient shells")
	}
	if lMax < 0 || lMax%2 != 0 {
		return nil, fmt.Errorf("transform: lMax must be even and non-negative, got %d", lMax)
	}

	points := len(gradients[0])
	t := &S2ToSignal{
		basis:  make([]*mat.Dense, len(gradients)),
		lMax:   lMax,
		nCoef:  NumCoefficients(lMax),
		points: points,
	}
	for s, dirs := range gradients {
		if len(dirs) != points {
			return nil, fmt.Errorf("transform: shell %d has %d directions, shell 0 has %d", s, len(dirs), points)
		}
		t.basis[s] = basisMatrix(dirs, lMax)
	}
	return t, nil
}

// NumCoefficients returns the coefficient count per shell.
func (t *S2ToSignal) NumCoefficients() int { return t.nCoef }

// Forward evaluates coefficients of shape [N, shells, nCoef] at the
// sampling directions, returning [N, shells, points].
func (t *S2ToSignal) Forward(c *tensor.Dense) (*tensor.Dense, error) {
	shape := c.Shape()
	if len(shape) != 3 || shape[1] != len(t.basis) || shape[2] != t.nCoef {
		return nil, fmt.Errorf("transform: %w: got %v, want [N %d %d]",
			harmonic.ErrShapeMismatch, shape, len(t.basis), t.nCoef)
	}
	n := shape[0]

	out := tensor.Zeros(tensor.Shape{n, len(t.basis), t.points})
	cd, od := c.Data(), out.Data()
	for ni := 0; ni < n; ni++ {
		for s := range t.basis {
			coef := mat.NewVecDense(t.nCoef, cd[(ni*len(t.basis)+s)*t.nCoef:(ni*len(t.basis)+s+1)*t.nCoef])
			sig := mat.NewVecDense(t.points, od[(ni*len(t.basis)+s)*t.points:(ni*len(t.basis)+s+1)*t.points])
			sig.MulVec(t.basis[s], coef)
		}
	}
	return out, nil
}

// SplitCoefficients reshapes a [N, shells, nCoef] coefficient tensor into
// an S2-stage harmonic map: per even degree l a tensor
// [N, 1, 1, shells, 2l+1], with shells acting as the channel axis.
func SplitCoefficients(c *tensor.Dense, lMax int) (*harmonic.Map, error) {
	shape := c.Shape()
	nCoef := NumCoefficients(lMax)
	if len(shape) != 3 || shape[2] != nCoef {
		return nil, fmt.Errorf("transform: %w: got %v, want [N shells %d]",
			harmonic.ErrShapeMismatch, shape, nCoef)
	}
	n, shells := shape[0], shape[1]
	cd := c.Data()

	m := harmonic.NewMap()
	offset := 0
	for l := 0; l <= lMax; l += 2 {
		o := 2*l + 1
		t := tensor.Zeros(tensor.Shape{n, 1, 1, shells, o})
		td := t.Data()
		for ni := 0; ni < n; ni++ {
			for s := 0; s < shells; s++ {
				src := cd[(ni*shells+s)*nCoef+offset : (ni*shells+s)*nCoef+offset+o]
				copy(td[(ni*shells+s)*o:(ni*shells+s+1)*o], src)
			}
		}
		m.Set(l, t)
		offset += o
	}
	return m, nil
}

// basisMatrix evaluates the even-degree real basis at every direction,
// one row per direction.
func basisMatrix(dirs [][3]float64, lMax int) *mat.Dense {
	nCoef := NumCoefficients(lMax)
	b := mat.NewDense(len(dirs), nCoef, nil)
	for i, d := range dirs {
		theta, phi := cartesianToSpherical(d)
		b.SetRow(i, realSHRow(lMax, theta, phi))
	}
	return b
}

// addLaplaceBeltrami adds lambda * diag(l^2 (l+1)^2) to the Gram matrix,
// penalizing curvature degree by degree.
func addLaplaceBeltrami(gram *mat.Dense, lMax int, lambda float64) {
	i := 0
	for l := 0; l <= lMax; l += 2 {
		pen := lambda * float64(l*l*(l+1)*(l+1))
		for m := -l; m <= l; m++ {
			gram.Set(i, i, gram.At(i, i)+pen)
			i++
		}
	}
}
