// Package model provides the lifecycle state and small capability
// interfaces shared by the classifier types.
package model

// Scorer is implemented by anything that carries a quality score once it
// has been evaluated.
type Scorer interface {
	// Quality returns the score and whether it has been set.
	Quality() (float64, bool)
}

// Evaluator is implemented by configurations that can be scored against a
// held-out partition.
type Evaluator interface {
	Scorer
	Evaluate() error
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}
