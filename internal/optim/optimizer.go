// Package optim implements parameter update rules.
//
// Gradients are computed by the host training system and attached to
// parameters with SetGrad before Step; the optimizers here only apply
// the update. Parameters without a gradient are skipped, which is the
// normal state for parameters outside the current forward pass.
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3})
//
//	for step := range steps {
//	    attachGradients(model)   // host-computed
//	    optimizer.Step()
//	    optimizer.ZeroGrad()
//	}
package optim

// Optimizer is the base interface for all update rules.
type Optimizer interface {
	// Step applies one update to every parameter carrying a gradient.
	Step()

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}
