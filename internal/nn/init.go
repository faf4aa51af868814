package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Draws from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))),
// maintaining activation variance across layers.
func Xavier(fanIn, fanOut int, shape tensor.Shape) *tensor.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros(shape)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization (not security-critical)
		data[i] = (rand.Float64()*2.0 - 1.0) * bound
	}
	return t
}

// Uniform initialization drawing from U(0, scale).
//
// scale = 0.1 is the spectral convolution weight initialization.
func Uniform(shape tensor.Shape, scale float64) *tensor.Dense {
	return tensor.Rand(shape, scale)
}

// Orthogonal initializes a [rows, cols] weight matrix with orthonormal
// rows (or columns, whichever is the smaller extent), following the usual
// QR-of-Gaussian construction. The decoder head applies this to its linear
// layers.
func Orthogonal(rows, cols int) *tensor.Dense {
	// QR needs a tall matrix; work on the transpose when rows < cols.
	flip := rows < cols
	m, n := rows, cols
	if flip {
		m, n = cols, rows
	}

	a := mat.NewDense(m, n, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			//nolint:gosec // math/rand for weight initialization (not security-critical)
			a.Set(i, j, rand.NormFloat64())
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var q mat.Dense
	qr.QTo(&q)

	var r mat.Dense
	qr.RTo(&r)

	// Multiply each column by the sign of the corresponding R diagonal so
	// the distribution is uniform over the orthogonal group.
	out := tensor.Zeros(tensor.Shape{rows, cols})
	data := out.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var v float64
			if flip {
				v = q.At(j, i) * sign(r.At(i, i))
			} else {
				v = q.At(i, j) * sign(r.At(j, j))
			}
			data[i*cols+j] = v
		}
	}
	return out
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// InitOrthogonal re-initializes a Linear layer with an orthogonal weight
// matrix and constant biases, the decoder head initialization.
func InitOrthogonal(l *Linear, biasValue float64) {
	copy(l.Weight().Tensor().Data(), Orthogonal(l.OutFeatures(), l.InFeatures()).Data())
	bias := l.Bias().Tensor().Data()
	for i := range bias {
		bias[i] = biasValue
	}
}
