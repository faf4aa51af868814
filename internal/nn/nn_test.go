package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

func TestLinear_ForwardKnownValues(t *testing.T) {
	l := nn.NewLinear(2, 1)
	copy(l.Weight().Tensor().Data(), []float64{1, 2})
	l.Bias().Tensor().Data()[0] = 0.5

	x, err := tensor.FromSlice([]float64{3, 4}, tensor.Shape{1, 2})
	require.NoError(t, err)

	y := l.Forward(x)
	assert.Equal(t, tensor.Shape{1, 1}, y.Shape())
	assert.InDelta(t, 3*1+4*2+0.5, y.At(0, 0), 1e-12)
}

func TestLinear_ForwardPanicsOnWrongFeatures(t *testing.T) {
	l := nn.NewLinear(3, 2)
	x := tensor.Zeros(tensor.Shape{1, 4})
	assert.Panics(t, func() { l.Forward(x) })
}

func TestLinear_StateDictRoundTrip(t *testing.T) {
	src := nn.NewLinear(3, 2)
	dst := nn.NewLinear(3, 2)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())
	assert.Equal(t, src.Bias().Tensor().Data(), dst.Bias().Tensor().Data())
}

func TestXavier_Bounds(t *testing.T) {
	w := nn.Xavier(64, 32, tensor.Shape{32, 64})
	bound := math.Sqrt(6.0 / (64 + 32))
	for _, v := range w.Data() {
		require.LessOrEqual(t, math.Abs(v), bound)
	}
}

func TestUniform_Range(t *testing.T) {
	w := nn.Uniform(tensor.Shape{1000}, 0.1)
	for _, v := range w.Data() {
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 0.1)
	}
}

func TestOrthogonal_RowsOrthonormal(t *testing.T) {
	const rows, cols = 3, 5
	w := nn.Orthogonal(rows, cols)
	require.Equal(t, tensor.Shape{rows, cols}, w.Shape())

	data := w.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < rows; j++ {
			var dot float64
			for k := 0; k < cols; k++ {
				dot += data[i*cols+k] * data[j*cols+k]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, dot, 1e-10, "rows %d and %d", i, j)
		}
	}
}

func TestOrthogonal_ColumnsOrthonormalWhenTall(t *testing.T) {
	const rows, cols = 6, 4
	w := nn.Orthogonal(rows, cols)

	data := w.Data()
	for i := 0; i < cols; i++ {
		for j := 0; j < cols; j++ {
			var dot float64
			for k := 0; k < rows; k++ {
				dot += data[k*cols+i] * data[k*cols+j]
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, dot, 1e-10, "columns %d and %d", i, j)
		}
	}
}

func TestInitOrthogonal_SetsConstantBias(t *testing.T) {
	l := nn.NewLinear(4, 3)
	nn.InitOrthogonal(l, 0.01)
	for _, v := range l.Bias().Tensor().Data() {
		assert.Equal(t, 0.01, v)
	}
}

func TestLeakyReLU_Forward(t *testing.T) {
	act := nn.NewLeakyReLU(0.2)
	x, err := tensor.FromSlice([]float64{-1, 0, 2}, tensor.Shape{1, 3})
	require.NoError(t, err)

	y := act.Forward(x)
	assert.InDelta(t, -0.2, y.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, y.At(0, 1))
	assert.Equal(t, 2.0, y.At(0, 2))
}

func TestSequential_ForwardAndParameters(t *testing.T) {
	seq := nn.NewSequential(
		nn.NewLinear(2, 4),
		nn.NewLeakyReLU(0.2),
		nn.NewLinear(4, 1),
	)
	assert.Equal(t, 3, seq.Len())
	assert.Len(t, seq.Parameters(), 4)

	x := tensor.Zeros(tensor.Shape{5, 2})
	y := seq.Forward(x)
	assert.Equal(t, tensor.Shape{5, 1}, y.Shape())
}

func TestSequential_StateDictRoundTrip(t *testing.T) {
	src := nn.NewSequential(nn.NewLinear(2, 3), nn.NewLeakyReLU(0.2), nn.NewLinear(3, 2))
	dst := nn.NewSequential(nn.NewLinear(2, 3), nn.NewLeakyReLU(0.2), nn.NewLinear(3, 2))

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	srcLin := src.Module(2).(*nn.Linear)
	dstLin := dst.Module(2).(*nn.Linear)
	assert.Equal(t, srcLin.Weight().Tensor().Data(), dstLin.Weight().Tensor().Data())
}
