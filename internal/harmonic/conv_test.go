package harmonic_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sphconv-ml/sphconv/internal/harmonic"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// s2Input builds an S2-stage map over the even degrees up to lIn with
// every coefficient set to value.
func s2Input(n, ti, te, c, lIn int, value float64) *harmonic.Map {
	m := harmonic.NewMap()
	for l := 0; l <= lIn; l += 2 {
		m.Set(l, tensor.Full(tensor.Shape{n, ti, te, c, 2*l + 1}, value))
	}
	return m
}

// so3Input builds an SO3-stage map over the even degrees up to lIn.
func so3Input(n, ti, te, c, lIn int, value float64) *harmonic.Map {
	m := harmonic.NewMap()
	for l := 0; l <= lIn; l += 2 {
		o := 2*l + 1
		m.Set(l, tensor.Full(tensor.Shape{n, ti, te, c, o, o}, value))
	}
	return m
}

// TestS2Convolution_DegreeZeroScenario pins the simplest end-to-end
// contraction: a single degree-0 coefficient 2.0 through weight 1.0 and
// bias 0.5 yields 2.5.
func TestS2Convolution_DegreeZeroScenario(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 0, 1, 1, true)
	conv.Weight(0).Tensor().Data()[0] = 1.0
	conv.Bias().Tensor().Data()[0] = 0.5

	in := harmonic.NewMap()
	in.Set(0, tensor.Full(tensor.Shape{1, 1, 1, 1, 1}, 2.0))

	out, feats, err := conv.Forward(in)
	require.NoError(t, err)
	require.NotNil(t, feats)
	assert.Equal(t, 0, feats.Len())

	y, err := out.Get(0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 1, 1, 1, 1}, y.Shape())
	assert.InDelta(t, 2.5, y.At(0, 0, 0, 0, 0, 0), 1e-12)
}

func TestS2Convolution_OutputShapes(t *testing.T) {
	const n, ti, te, bIn, bOut, lIn = 2, 2, 3, 4, 5, 4
	conv := harmonic.NewS2Convolution(ti, te, lIn, bIn, bOut, true)

	out, _, err := conv.Forward(s2Input(n, ti, te, bIn, lIn, 1.0))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 4}, out.Degrees())
	for _, l := range out.Degrees() {
		y, err := out.Get(l)
		require.NoError(t, err)
		assert.Equal(t, tensor.Shape{n, ti, te, bOut, 2*l + 1, 2*l + 1}, y.Shape())
	}
}

// TestS2Convolution_Linearity checks the zero-bias layer is linear in
// its input: doubling the coefficients doubles the output.
func TestS2Convolution_Linearity(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 2, 2, 3, true)

	out1, _, err := conv.Forward(s2Input(1, 1, 1, 2, 2, 1.0))
	require.NoError(t, err)
	out2, _, err := conv.Forward(s2Input(1, 1, 1, 2, 2, 2.0))
	require.NoError(t, err)

	for _, l := range []int{0, 2} {
		y1, err := out1.Get(l)
		require.NoError(t, err)
		y2, err := out2.Get(l)
		require.NoError(t, err)
		for i, v := range y1.Data() {
			assert.InDelta(t, 2*v, y2.Data()[i], 1e-12)
		}
	}
}

// TestS2Convolution_BiasOnlyAffectsDegreeZero zeroes the weights so the
// bias is the only signal; nonzero degrees must stay zero.
func TestS2Convolution_BiasOnlyAffectsDegreeZero(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 2, 1, 1, true)
	for _, l := range conv.Degrees() {
		for i := range conv.Weight(l).Tensor().Data() {
			conv.Weight(l).Tensor().Data()[i] = 0
		}
	}
	conv.Bias().Tensor().Data()[0] = 0.75

	out, _, err := conv.Forward(s2Input(1, 1, 1, 1, 2, 1.0))
	require.NoError(t, err)

	y0, err := out.Get(0)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, y0.At(0, 0, 0, 0, 0, 0), 1e-12)

	y2, err := out.Get(2)
	require.NoError(t, err)
	for _, v := range y2.Data() {
		assert.Zero(t, v)
	}
}

func TestS2Convolution_MissingDegree(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 2, 1, 1, true)

	in := harmonic.NewMap()
	in.Set(0, tensor.Full(tensor.Shape{1, 1, 1, 1, 1}, 1.0))

	_, _, err := conv.Forward(in)
	assert.ErrorIs(t, err, harmonic.ErrMissingDegree)
}

func TestS2Convolution_ShapeMismatch(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 0, 2, 1, true)

	in := harmonic.NewMap()
	in.Set(0, tensor.Full(tensor.Shape{1, 1, 1, 3, 1}, 1.0)) // 3 channels, layer expects 2

	_, _, err := conv.Forward(in)
	assert.ErrorIs(t, err, harmonic.ErrShapeMismatch)
}

func TestS2Convolution_WeightPanicsOutsideDegreeSet(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 4, 1, 1, true)
	assert.Panics(t, func() { conv.Weight(1) })
	assert.Panics(t, func() { conv.Weight(6) })
}

func TestS2Convolution_Parameters(t *testing.T) {
	conv := harmonic.NewS2Convolution(1, 1, 4, 2, 3, true)
	params := conv.Parameters()
	require.Len(t, params, 4) // three degree kernels plus bias
	assert.Equal(t, "weight_0", params[0].Name())
	assert.Equal(t, "weight_4", params[2].Name())
	assert.Equal(t, "bias", params[3].Name())
}

// TestSO3Convolution_PeterWeylScaling checks the (2l+1) factor with an
// all-ones input and kernel: each entry sums 2l+1 products of 1 and is
// then scaled, so every degree-l output entry equals (2l+1)^2.
func TestSO3Convolution_PeterWeylScaling(t *testing.T) {
	conv := harmonic.NewSO3Convolution(1, 1, 2, 1, 1, true)
	for _, l := range conv.Degrees() {
		d := conv.Weight(l).Tensor().Data()
		for i := range d {
			d[i] = 1
		}
	}

	out, _, err := conv.Forward(so3Input(1, 1, 1, 1, 2, 1.0), harmonic.NewFeatures())
	require.NoError(t, err)

	for _, l := range []int{0, 2} {
		y, err := out.Get(l)
		require.NoError(t, err)
		want := float64((2*l + 1) * (2*l + 1))
		for _, v := range y.Data() {
			assert.InDelta(t, want, v, 1e-12)
		}
	}
}

// TestSO3Convolution_MatchesManualContraction verifies one degree-2
// entry against a direct loop over the contraction definition.
func TestSO3Convolution_MatchesManualContraction(t *testing.T) {
	const l, m = 2, 5
	conv := harmonic.NewSO3Convolution(1, 1, l, 2, 1, true)

	x := tensor.Randn(tensor.Shape{1, 1, 1, 2, m, m})
	in := harmonic.NewMap()
	in.Set(0, tensor.Randn(tensor.Shape{1, 1, 1, 2, 1, 1}))
	in.Set(l, x)

	out, _, err := conv.Forward(in, harmonic.NewFeatures())
	require.NoError(t, err)
	y, err := out.Get(l)
	require.NoError(t, err)

	w := conv.Weight(l).Tensor()
	for mi := 0; mi < m; mi++ {
		for j := 0; j < m; j++ {
			var want float64
			for i := 0; i < 2; i++ {
				for k := 0; k < m; k++ {
					want += x.At(0, 0, 0, i, mi, k) * w.At(0, 0, i, 0, k, j)
				}
			}
			want *= 2*l + 1
			assert.InDelta(t, want, y.At(0, 0, 0, 0, mi, j), 1e-10)
		}
	}
}

func TestSO3Convolution_FeaturesPassThrough(t *testing.T) {
	conv := harmonic.NewSO3Convolution(1, 1, 0, 1, 1, true)

	feats := harmonic.NewFeatures()
	feats.Append(tensor.Full(tensor.Shape{1, 3}, 1.0))

	_, got, err := conv.Forward(so3Input(1, 1, 1, 1, 0, 1.0), feats)
	require.NoError(t, err)
	assert.Same(t, feats, got)
	assert.Equal(t, 1, got.Len())
}

func TestSO3Convolution_ShapeMismatch(t *testing.T) {
	conv := harmonic.NewSO3Convolution(1, 1, 0, 1, 1, true)

	in := harmonic.NewMap()
	in.Set(0, tensor.Full(tensor.Shape{1, 1, 1, 1, 1}, 1.0)) // S2-stage rank, not SO3

	_, _, err := conv.Forward(in, harmonic.NewFeatures())
	assert.ErrorIs(t, err, harmonic.ErrShapeMismatch)
}

func TestMap_GetMissingDegree(t *testing.T) {
	m := harmonic.NewMap()
	m.Set(0, tensor.Zeros(tensor.Shape{1, 1, 1, 1, 1}))

	_, err := m.Get(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, harmonic.ErrMissingDegree))
}

func TestMap_DegreesSortedAndCopied(t *testing.T) {
	m := harmonic.NewMap()
	m.Set(4, tensor.Zeros(tensor.Shape{1}))
	m.Set(0, tensor.Zeros(tensor.Shape{1}))
	m.Set(2, tensor.Zeros(tensor.Shape{1}))

	got := m.Degrees()
	assert.Equal(t, []int{0, 2, 4}, got)

	got[0] = 99
	assert.Equal(t, []int{0, 2, 4}, m.Degrees())
}

func TestFeatures_VectorConcatenatesInOrder(t *testing.T) {
	f := harmonic.NewFeatures()
	a, err := tensor.FromSlice([]float64{1, 2}, tensor.Shape{1, 2})
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float64{3}, tensor.Shape{1, 1})
	require.NoError(t, err)
	f.Append(a)
	f.Append(b)

	assert.Equal(t, 3, f.Dim())
	v, err := f.Vector()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v.Data())
}

func TestFeatures_EmptyVectorFails(t *testing.T) {
	_, err := harmonic.NewFeatures().Vector()
	assert.Error(t, err)
}
