package optim

import (
	"fmt"

	"github.com/sphconv-ml/sphconv/internal/nn"
	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter]*tensor.Dense
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float64 // learning rate (default: 0.01)
	Momentum float64 // momentum factor (default: 0, range [0, 1))
}

// NewSGD creates an SGD optimizer over params.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter]*tensor.Dense),
	}
}

// Step applies one update to every parameter carrying a gradient.
func (s *SGD) Step() {
	for _, param := range s.params {
		grad := param.Grad()
		if grad == nil {
			continue
		}
		pd, gd := param.Tensor().Data(), grad.Data()
		if len(pd) != len(gd) {
			panic(fmt.Sprintf("optim: gradient for %q has %d elements, parameter has %d",
				param.Name(), len(gd), len(pd)))
		}

		if s.momentum == 0 {
			for i := range pd {
				pd[i] -= s.lr * gd[i]
			}
			continue
		}

		v, ok := s.velocities[param]
		if !ok {
			v = tensor.Zeros(param.Tensor().Shape())
			s.velocities[param] = v
		}
		vd := v.Data()
		for i := range pd {
			vd[i] = s.momentum*vd[i] + gd[i]
			pd[i] -= s.lr * vd[i]
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}
