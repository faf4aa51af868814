package harmonic

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// couplingCache memoizes coupling tensors process-wide. The function is
// pure and deterministic, so a compute-and-store race on first use is
// harmless: losers discard an identical tensor.
var couplingCache sync.Map // tripleKey -> *tensor.Dense

type tripleKey struct {
	l1, l2, l int
}

// Coupling returns the coupling coefficient tensor for combining degrees
// l1 and l2 into degree l, with shape [2l+1, 2l1+1, 2l2+1].
//
// The tensor holds real-basis Wigner-3j values: SU(2) Clebsch-Gordan
// coefficients conjugated into the real spherical-harmonic basis and
// scaled to unit Frobenius norm, stored in the memory layout the
// quadratic nonlinearity contracts against. Triples violating the
// triangle inequality |l1-l2| <= l <= l1+l2 yield an all-zero tensor.
//
// The returned tensor is shared across callers and must not be mutated.
func Coupling(l1, l2, l int) *tensor.Dense {
	if l1 < 0 || l2 < 0 || l < 0 {
		panic(fmt.Sprintf("harmonic: negative degree in coupling triple (%d, %d, %d)", l1, l2, l))
	}
	key := tripleKey{l1, l2, l}
	if v, ok := couplingCache.Load(key); ok {
		return v.(*tensor.Dense)
	}
	t := computeCoupling(l1, l2, l)
	actual, _ := couplingCache.LoadOrStore(key, t)
	return actual.(*tensor.Dense)
}

// Admissible reports whether the ordered degree triple satisfies the
// triangle inequality.
func Admissible(l1, l2, l int) bool {
	d := l1 - l2
	if d < 0 {
		d = -d
	}
	return d <= l && l <= l1+l2
}

func computeCoupling(l1, l2, l int) *tensor.Dense {
	m1, m2, m3 := 2*l1+1, 2*l2+1, 2*l+1
	out := tensor.Zeros(tensor.Shape{m3, m1, m2})
	if !Admissible(l1, l2, l) {
		return out
	}

	w := realWigner3j(l1, l2, l) // [m1][m2][m3], row-major

	// The nonlinearity consumes the tensor with all axes reversed and the
	// trailing two reinterpreted row-major as (2l1+1, 2l2+1). For l1 == l2
	// this is a plain transpose; for l1 != l2 it is a flat reindexing,
	// not an axis permutation.
	data := out.Data()
	for k := 0; k < m3; k++ {
		for f := 0; f < m1*m2; f++ {
			i1 := f % m1
			i2 := f / m1
			data[k*m1*m2+f] = w[(i1*m2+i2)*m3+k]
		}
	}
	return out
}

// realWigner3j computes the unit-norm real-basis Wigner-3j tensor with
// shape [2l1+1, 2l2+1, 2l3+1] (flattened row-major).
func realWigner3j(l1, l2, l3 int) []float64 {
	m1, m2, m3 := 2*l1+1, 2*l2+1, 2*l3+1

	cg := make([]complex128, m1*m2*m3)
	for i := 0; i < m1; i++ {
		for k := 0; k < m2; k++ {
			for n := 0; n < m3; n++ {
				cg[(i*m2+k)*m3+n] = complex(clebschGordan(l1, i-l1, l2, k-l2, l3, n-l3), 0)
			}
		}
	}

	q1 := realToComplexBasis(l1)
	q2 := realToComplexBasis(l2)
	q3 := realToComplexBasis(l3)

	// Conjugate each axis into the real basis, one contraction at a time.
	t1 := make([]complex128, m1*m2*m3) // t1[j,k,n] = sum_i q1[i,j] cg[i,k,n]
	for j := 0; j < m1; j++ {
		for i := 0; i < m1; i++ {
			qv := q1[i*m1+j]
			if qv == 0 {
				continue
			}
			for kn := 0; kn < m2*m3; kn++ {
				t1[j*m2*m3+kn] += qv * cg[i*m2*m3+kn]
			}
		}
	}

	t2 := make([]complex128, m1*m2*m3) // t2[j,u,n] = sum_k q2[k,u] t1[j,k,n]
	for j := 0; j < m1; j++ {
		for u := 0; u < m2; u++ {
			for k := 0; k < m2; k++ {
				qv := q2[k*m2+u]
				if qv == 0 {
					continue
				}
				for n := 0; n < m3; n++ {
					t2[(j*m2+u)*m3+n] += qv * t1[(j*m2+k)*m3+n]
				}
			}
		}
	}

	w := make([]float64, m1*m2*m3) // w[j,u,m] = Re sum_n conj(q3[n,m]) t2[j,u,n]
	norm := 0.0
	for ju := 0; ju < m1*m2; ju++ {
		for m := 0; m < m3; m++ {
			var acc complex128
			for n := 0; n < m3; n++ {
				qv := q3[n*m3+m]
				if qv == 0 {
					continue
				}
				acc += complex(real(qv), -imag(qv)) * t2[ju*m3+n]
			}
			// The (-i)^l phases make the result real; the residual
			// imaginary part is floating-point noise.
			w[ju*m3+m] = real(acc)
			norm += real(acc) * real(acc)
		}
	}

	if norm > 0 {
		inv := 1.0 / math.Sqrt(norm)
		for i := range w {
			w[i] *= inv
		}
	}
	return w
}

// realToComplexBasis returns the (2l+1)x(2l+1) change-of-basis matrix from
// real to complex spherical harmonics, with the (-i)^l phase that renders
// the coupled tensor real. Orders run m = -l..l along both axes.
func realToComplexBasis(l int) []complex128 {
	n := 2*l + 1
	q := make([]complex128, n*n)
	invSqrt2 := 1.0 / math.Sqrt2

	for m := -l; m < 0; m++ {
		q[(l+m)*n+(l-m)] = complex(invSqrt2, 0)
		q[(l+m)*n+(l+m)] = complex(0, -invSqrt2)
	}
	q[l*n+l] = 1
	for m := 1; m <= l; m++ {
		s := 1.0
		if m%2 != 0 {
			s = -1.0
		}
		q[(l+m)*n+(l+m)] = complex(s*invSqrt2, 0)
		q[(l+m)*n+(l-m)] = complex(0, s*invSqrt2)
	}

	var phase complex128
	switch l % 4 {
	case 0:
		phase = 1
	case 1:
		phase = complex(0, -1)
	case 2:
		phase = -1
	default:
		phase = complex(0, 1)
	}
	for i := range q {
		q[i] *= phase
	}
	return q
}

// clebschGordan evaluates <l1 m1; l2 m2 | l3 m3> by the Racah factorial
// formula, carrying the rational parts exactly before the final square
// root.
func clebschGordan(l1, m1, l2, m2, l3, m3 int) float64 {
	if m3 != m1+m2 || !Admissible(l1, l2, l3) {
		return 0
	}
	if m1 < -l1 || m1 > l1 || m2 < -l2 || m2 > l2 || m3 < -l3 || m3 > l3 {
		return 0
	}

	vmin := maxInt(-l1+l2+m3, -l1+m1, 0)
	vmax := minInt(l2+l3+m1, l3-l1+l2, l3+m3)
	if vmax < vmin {
		return 0
	}

	num := new(big.Int).Mul(factorial(l3+l1-l2), factorial(l3-l1+l2))
	num.Mul(num, factorial(l1+l2-l3))
	num.Mul(num, factorial(l3+m3))
	num.Mul(num, factorial(l3-m3))
	den := new(big.Int).Mul(factorial(l1+l2+l3+1), factorial(l1-m1))
	den.Mul(den, factorial(l1+m1))
	den.Mul(den, factorial(l2-m2))
	den.Mul(den, factorial(l2+m2))
	frac := new(big.Rat).SetFrac(num, den)

	sum := new(big.Rat)
	for v := vmin; v <= vmax; v++ {
		tn := new(big.Int).Mul(factorial(l2+l3+m1-v), factorial(l1-m1+v))
		td := new(big.Int).Mul(factorial(v), factorial(l3-l1+l2-v))
		td.Mul(td, factorial(l3+m3-v))
		td.Mul(td, factorial(v+l1-l2-m3))
		term := new(big.Rat).SetFrac(tn, td)
		if (v+l2+m2)%2 != 0 {
			term.Neg(term)
		}
		sum.Add(sum, term)
	}

	fracF, _ := frac.Float64()
	sumF, _ := sum.Float64()
	return sumF * math.Sqrt(float64(2*l3+1)*fracF)
}

func factorial(n int) *big.Int {
	if n < 0 {
		panic(fmt.Sprintf("harmonic: factorial of negative %d", n))
	}
	f := big.NewInt(1)
	for i := 2; i <= n; i++ {
		f.Mul(f, big.NewInt(int64(i)))
	}
	return f
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
