package optim_test

import (
	"math"
	"testing"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/optim"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func paramWithGrad(value, grad float64) *nn.Parameter {
	p := nn.NewParameter("x", tensor.Full(tensor.Shape{1}, value))
	p.SetGrad(tensor.Full(tensor.Shape{1}, grad))
	return p
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	param := paramWithGrad(2.0, 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.Step()

	// x_new = 2.0 - 0.1 * 1.0 = 1.9
	if got := param.Tensor().Data()[0]; !floatEqual(got, 1.9, 1e-12) {
		t.Errorf("SGD update: got %f, want 1.9", got)
	}
}

// TestSGD_WithMomentum tests two steps of momentum accumulation.
func TestSGD_WithMomentum(t *testing.T) {
	param := paramWithGrad(1.0, 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1, Momentum: 0.9})

	// Step 1: v = 1.0, x = 1.0 - 0.1 = 0.9
	optimizer.Step()
	if got := param.Tensor().Data()[0]; !floatEqual(got, 0.9, 1e-12) {
		t.Errorf("step 1: got %f, want 0.9", got)
	}

	// Step 2: v = 0.9 + 1.0 = 1.9, x = 0.9 - 0.19 = 0.71
	param.SetGrad(tensor.Full(tensor.Shape{1}, 1.0))
	optimizer.Step()
	if got := param.Tensor().Data()[0]; !floatEqual(got, 0.71, 1e-12) {
		t.Errorf("step 2: got %f, want 0.71", got)
	}
}

// TestSGD_SkipsParametersWithoutGradient tests that gradient-free
// parameters are untouched.
func TestSGD_SkipsParametersWithoutGradient(t *testing.T) {
	param := nn.NewParameter("x", tensor.Full(tensor.Shape{1}, 5.0))
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.Step()

	if got := param.Tensor().Data()[0]; got != 5.0 {
		t.Errorf("parameter without gradient moved: got %f, want 5.0", got)
	}
}

// TestSGD_ZeroGrad tests that gradients are cleared.
func TestSGD_ZeroGrad(t *testing.T) {
	param := paramWithGrad(1.0, 1.0)
	optimizer := optim.NewSGD([]*nn.Parameter{param}, optim.SGDConfig{LR: 0.1})

	optimizer.ZeroGrad()

	if param.Grad() != nil {
		t.Error("gradient not cleared after ZeroGrad")
	}
}

// TestAdam_FirstStep tests the bias-corrected first update.
func TestAdam_FirstStep(t *testing.T) {
	param := paramWithGrad(1.0, 1.0)
	optimizer := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{LR: 0.001})

	optimizer.Step()

	// After bias correction m_hat = 1, v_hat = 1:
	// x = 1.0 - 0.001 * 1 / (1 + 1e-8) ~= 0.999
	want := 1.0 - 0.001*1.0/(1.0+1e-8)
	if got := param.Tensor().Data()[0]; !floatEqual(got, want, 1e-12) {
		t.Errorf("Adam step: got %.12f, want %.12f", got, want)
	}
}

// TestAdam_ConvergesOnQuadratic runs Adam on f(x) = x^2 and checks the
// iterate moves toward the minimum.
func TestAdam_ConvergesOnQuadratic(t *testing.T) {
	param := nn.NewParameter("x", tensor.Full(tensor.Shape{1}, 3.0))
	optimizer := optim.NewAdam([]*nn.Parameter{param}, optim.AdamConfig{LR: 0.1})

	for i := 0; i < 200; i++ {
		x := param.Tensor().Data()[0]
		param.SetGrad(tensor.Full(tensor.Shape{1}, 2*x))
		optimizer.Step()
		optimizer.ZeroGrad()
	}

	if got := math.Abs(param.Tensor().Data()[0]); got > 0.1 {
		t.Errorf("Adam did not approach the minimum: |x| = %f", got)
	}
}

// TestAdam_Defaults tests the zero-value config is filled in.
func TestAdam_Defaults(t *testing.T) {
	optimizer := optim.NewAdam(nil, optim.AdamConfig{})
	if got := optimizer.LR(); got != 0.001 {
		t.Errorf("default LR: got %f, want 0.001", got)
	}
}

// TestSGD_Defaults tests the zero-value config is filled in.
func TestSGD_Defaults(t *testing.T) {
	optimizer := optim.NewSGD(nil, optim.SGDConfig{})
	if got := optimizer.LR(); got != 0.01 {
		t.Errorf("default LR: got %f, want 0.01", got)
	}
}
