package classifier

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned while the model has not finished loading, or
	// never will because loading failed.
	ErrNotReady = errors.New("model not ready")
	// ErrInference marks a model invocation failure.
	ErrInference = errors.New("inference failed")
	// ErrLabelMismatch marks a label count that does not align with the
	// model output vector. Detected at load time, fatal to readiness.
	ErrLabelMismatch = errors.New("label count does not match model output")
)

// Prediction is the arg-max outcome over one prediction vector.
type Prediction struct {
	Label       string
	Probability float32
}

// BestOf selects the label with the highest probability. Single pass,
// replacing the current best only on a strictly greater value, so exact
// ties resolve to the lowest index.
func BestOf(probs []float32, labels []string) (Prediction, error) {
	if len(probs) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty prediction vector", ErrInference)
	}
	if len(probs) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: %d probabilities for %d labels", ErrLabelMismatch, len(probs), len(labels))
	}

	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	return Prediction{Label: labels[best], Probability: probs[best]}, nil
}
