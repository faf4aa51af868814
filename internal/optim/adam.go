package optim

import (
	"fmt"
	"math"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient^2
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014).
type Adam struct {
	params []*nn.Parameter
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int // timestep for bias correction
	m      map[*nn.Parameter]*tensor.Dense
	v      map[*nn.Parameter]*tensor.Dense
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float64    // learning rate (default: 0.001)
	Betas [2]float64 // running-average coefficients (default: [0.9, 0.999])
	Eps   float64    // numerical stability term (default: 1e-8)
}

// NewAdam creates an Adam optimizer over params with defaults filled in.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter]*tensor.Dense),
		v:      make(map[*nn.Parameter]*tensor.Dense),
	}
}

// Step applies one Adam update to every parameter carrying a gradient.
func (a *Adam) Step() {
	a.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		pd, gd := param.Tensor().Data(), grad.Data()
		if len(pd) != len(gd) {
			panic(fmt.Sprintf("optim: gradient for %q has %d elements, parameter has %d",
				param.Name(), len(gd), len(pd)))
		}

		m, ok := a.m[param]
		if !ok {
			m = tensor.Zeros(param.Tensor().Shape())
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = tensor.Zeros(param.Tensor().Shape())
			a.v[param] = v
		}
		md, vd := m.Data(), v.Data()

		for i := range pd {
			md[i] = a.beta1*md[i] + (1-a.beta1)*gd[i]
			vd[i] = a.beta2*vd[i] + (1-a.beta2)*gd[i]*gd[i]
			mHat := md[i] / biasCorrection1
			vHat := vd[i] / biasCorrection2
			pd[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *Adam) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate.
func (a *Adam) LR() float64 {
	return a.lr
}
