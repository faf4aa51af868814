package harmonic

import (
	"fmt"
	"math"

	"github.com/sphconv-ml/sphconv/internal/parallel"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// QuadraticNonlinearity couples pairs of input degrees into output degrees
// through fixed coupling coefficients, the only nonlinearity that commutes
// with rotations in the spectral domain.
//
// For every output degree l and every ordered input pair (l1, l2) with
// l2 >= l1 satisfying |l1-l2| <= l <= l1+l2, the degree-l1 and degree-l2
// tensors are contracted through Coupling(l1, l2, l) and the contributions
// are summed per output degree. Pairs failing the triangle rule are the
// expected steady state, not an error.
//
// Each forward pass also derives one rotation-invariant energy per output
// degree, scaled by 8*pi^2/(2l+1) (the trace invariant under Haar
// measure), and appends it to the running feature accumulator.
type QuadraticNonlinearity struct {
	lIn, lOut int
	step      int
	triples   [][3]int // admissible (l1, l2, l), grouped by output degree
	par       parallel.Config
}

// NewQuadraticNonlinearity creates the coupling stage.
//
// The admissible triple set is enumerated eagerly; an output degree with
// no admissible pair means lOut is unreachable from lIn, a configuration
// defect reported as ErrEmptyOutput at construction rather than on the
// first forward call.
func NewQuadraticNonlinearity(lIn, lOut int, symmetric bool) (*QuadraticNonlinearity, error) {
	q := &QuadraticNonlinearity{
		lIn:  lIn,
		lOut: lOut,
		step: degreeStep(symmetric),
		par:  parallel.DefaultConfig(),
	}
	for l := 0; l <= lOut; l += q.step {
		found := false
		for l1 := 0; l1 <= lIn; l1 += q.step {
			for l2 := l1; l2 <= lIn; l2 += q.step {
				if Admissible(l1, l2, l) {
					q.triples = append(q.triples, [3]int{l1, l2, l})
					found = true
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: l=%d unreachable from degrees 0..%d step %d",
				ErrEmptyOutput, l, lIn, q.step)
		}
	}
	return q, nil
}

// Triples returns the statically admissible (l1, l2, l) triples in
// evaluation order. The caller owns the returned slice.
func (q *QuadraticNonlinearity) Triples() [][3]int {
	out := make([][3]int, len(q.triples))
	copy(out, q.triples)
	return out
}

// Forward couples an SO3-stage map into a new SO3-stage map over degrees
// {0, step, ..., lOut} and appends per-degree invariant features to feats.
// A nil feats starts a fresh accumulator.
//
// Triples whose input degrees are absent from the map are skipped; if the
// skips leave an output degree without any contribution, Forward fails
// with ErrMissingDegree.
func (q *QuadraticNonlinearity) Forward(in *Map, feats *Features) (*Map, *Features, error) {
	if feats == nil {
		feats = NewFeatures()
	}

	acc := make(map[int]*tensor.Dense)
	for _, tr := range q.triples {
		l1, l2, l := tr[0], tr[1], tr[2]
		if !in.Has(l1) || !in.Has(l2) {
			continue
		}
		a, _ := in.Get(l1)
		b, _ := in.Get(l2)
		if err := q.couple(acc, a, b, l1, l2, l); err != nil {
			return nil, nil, err
		}
	}

	out := NewMap()
	for l := 0; l <= q.lOut; l += q.step {
		z, ok := acc[l]
		if !ok {
			return nil, nil, fmt.Errorf("quadratic nonlinearity: output degree %d received no contribution: %w",
				l, ErrMissingDegree)
		}
		out.Set(l, z)
		feats.Append(invariantEnergy(z, l))
	}
	return out, feats, nil
}

// couple accumulates the (l1, l2) -> l contribution into acc[l].
func (q *QuadraticNonlinearity) couple(acc map[int]*tensor.Dense, a, b *tensor.Dense, l1, l2, l int) error {
	m1, m2, m := 2*l1+1, 2*l2+1, 2*l+1

	as, bs := a.Shape(), b.Shape()
	if len(as) != 6 || as[4] != m1 || as[5] != m1 {
		return fmt.Errorf("quadratic nonlinearity degree %d: %w: got %v, want [... %d %d]",
			l1, ErrShapeMismatch, as, m1, m1)
	}
	if len(bs) != 6 || bs[4] != m2 || bs[5] != m2 {
		return fmt.Errorf("quadratic nonlinearity degree %d: %w: got %v, want [... %d %d]",
			l2, ErrShapeMismatch, bs, m2, m2)
	}
	for i := 0; i < 4; i++ {
		if as[i] != bs[i] {
			return fmt.Errorf("quadratic nonlinearity pair (%d,%d): %w: %v vs %v",
				l1, l2, ErrShapeMismatch, as, bs)
		}
	}

	n, sites := as[0], as[1]*as[2]*as[3]
	z, ok := acc[l]
	if !ok {
		z = tensor.Zeros(tensor.Shape{as[0], as[1], as[2], as[3], m, m})
		acc[l] = z
	} else if zs := z.Shape(); zs[0] != as[0] || zs[1] != as[1] || zs[2] != as[2] || zs[3] != as[3] {
		return fmt.Errorf("quadratic nonlinearity degree %d: %w: %v vs %v",
			l, ErrShapeMismatch, z.Shape(), as)
	}

	cd := Coupling(l1, l2, l).Data() // [2l+1, 2l1+1, 2l2+1]
	ad, bd, zd := a.Data(), b.Data(), z.Data()
	e := m1 * m2

	parallel.ForSites(n, sites, func(ni, s int) {
		aSite := ad[(ni*sites+s)*m1*m1 : (ni*sites+s+1)*m1*m1]
		bSite := bd[(ni*sites+s)*m2*m2 : (ni*sites+s+1)*m2*m2]
		zSite := zd[(ni*sites+s)*m*m : (ni*sites+s+1)*m*m]

		// Left operand: degree-l1 rows pushed through the coupling tensor.
		y := make([]float64, m*e) // y[k, u, v]
		for k := 0; k < m; k++ {
			for u := 0; u < m1; u++ {
				for v := 0; v < m2; v++ {
					var sum float64
					for p := 0; p < m1; p++ {
						sum += cd[(k*m1+p)*m2+v] * aSite[p*m1+u]
					}
					y[k*e+u*m2+v] = sum
				}
			}
		}

		// Right operand: degree-l2 columns pushed through the coupling tensor.
		x := make([]float64, m*e) // x[j, u, v]
		for j := 0; j < m; j++ {
			for u := 0; u < m1; u++ {
				cRow := cd[(j*m1+u)*m2 : (j*m1+u+1)*m2]
				for v := 0; v < m2; v++ {
					bRow := bSite[v*m2 : (v+1)*m2]
					var sum float64
					for qi := 0; qi < m2; qi++ {
						sum += cRow[qi] * bRow[qi]
					}
					x[j*e+u*m2+v] = sum
				}
			}
		}

		// Inner product over the coupled order axes.
		for k := 0; k < m; k++ {
			yRow := y[k*e : (k+1)*e]
			for j := 0; j < m; j++ {
				xRow := x[j*e : (j+1)*e]
				var sum float64
				for i := 0; i < e; i++ {
					sum += yRow[i] * xRow[i]
				}
				zSite[k*m+j] += sum
			}
		}
	}, q.par)
	return nil
}

// invariantEnergy reduces a degree-l SO3-stage tensor [N, TI, TE, C, M, M]
// to its rotation-invariant per-site energy [N, TI*TE*C], scaled by the
// Haar-measure normalization 8*pi^2/(2l+1).
func invariantEnergy(z *tensor.Dense, l int) *tensor.Dense {
	shape := z.Shape()
	n, sites := shape[0], shape[1]*shape[2]*shape[3]
	m := shape[4] * shape[5]
	norm := 8 * math.Pi * math.Pi / float64(2*l+1)

	out := tensor.Zeros(tensor.Shape{n, sites})
	zd, od := z.Data(), out.Data()
	for ni := 0; ni < n; ni++ {
		for s := 0; s < sites; s++ {
			block := zd[(ni*sites+s)*m : (ni*sites+s+1)*m]
			var sum float64
			for _, v := range block {
				sum += v * v
			}
			od[ni*sites+s] = norm * sum
		}
	}
	return out
}

// LIn returns the maximum input degree.
func (q *QuadraticNonlinearity) LIn() int { return q.lIn }

// LOut returns the maximum output degree.
func (q *QuadraticNonlinearity) LOut() int { return q.lOut }
