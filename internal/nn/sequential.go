package nn

import (
	"fmt"
	"strings"

	"github.com/sphconv-ml/sphconv/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
// Each module's output becomes the next module's input.
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return &Sequential{modules: modules}
}

// Forward applies all modules in sequence.
func (s *Sequential) Forward(input *tensor.Dense) *tensor.Dense {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// StateDict returns a map of parameter names to tensors.
// Keys are prefixed with the module index ("0.weight", "2.bias", ...) to
// avoid name collisions.
func (s *Sequential) StateDict() map[string]*tensor.Dense {
	state := make(map[string]*tensor.Dense)
	for i, module := range s.modules {
		for name, t := range module.StateDict() {
			state[fmt.Sprintf("%d.%s", i, name)] = t
		}
	}
	return state
}

// LoadStateDict loads parameters from a state dictionary keyed by module
// index prefix.
func (s *Sequential) LoadStateDict(state map[string]*tensor.Dense) error {
	for i, module := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := make(map[string]*tensor.Dense)
		for key, t := range state {
			if strings.HasPrefix(key, prefix) {
				sub[key[len(prefix):]] = t
			}
		}
		if len(sub) > 0 {
			if err := module.LoadStateDict(sub); err != nil {
				return fmt.Errorf("failed to load module %d: %w", i, err)
			}
		}
	}
	return nil
}
