// Package detector defines the narrow capability every text classifier
// must implement, plus a process-wide registry of constructors keyed by
// a symbolic class reference.
//
// Production classifiers (perplexity scoring, n-gram mixtures, paraphrase
// detection, transformer finetunes) are not implemented here; the package
// fixes the seam the rest of the worker dispatches through and carries
// small stand-in variants (Mock, a character-bigram Perplexity, Broken,
// Crashy).
package detector

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedWeights is returned by LoadWeights when the blob does not
// match the format expected by the concrete variant.
var ErrMalformedWeights = errors.New("detector: malformed weights")

// probabilityTolerance bounds how far a predicted distribution's sum may
// drift from 1.0 and still be considered valid (spec Invariant B).
const probabilityTolerance = 1e-6

// Detector is the capability set every classifier variant implements.
type Detector interface {
	// Predict returns a probability distribution over Labels() for text.
	Predict(text string) ([]float64, error)
	// Labels returns the ordered label set Predict's output is aligned to.
	Labels() []string
	// StoreWeights serializes current state to bytes.
	StoreWeights() ([]byte, error)
	// LoadWeights restores state from bytes produced by StoreWeights.
	// Implementations must leave prior state untouched on error.
	LoadWeights([]byte) error
}

// Constructor builds a fresh, unloaded Detector instance.
type Constructor func() Detector

var constructors = map[string]Constructor{}

// Register adds a constructor under classRef. Called from variant init()
// functions; a duplicate classRef is a programming error.
func Register(classRef string, ctor Constructor) {
	if _, exists := constructors[classRef]; exists {
		panic(fmt.Sprintf("detector: class_ref %q already registered", classRef))
	}
	constructors[classRef] = ctor
}

// ErrUnknownClassRef indicates a class_ref with no registered constructor.
var ErrUnknownClassRef = errors.New("detector: unknown class_ref")

// New resolves classRef to a constructor and builds a fresh Detector.
func New(classRef string) (Detector, error) {
	ctor, ok := constructors[classRef]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClassRef, classRef)
	}
	return ctor(), nil
}

// ValidateDistribution checks spec Invariants A and B: probs must have
// exactly len(labels) entries, each in [0,1], summing to 1 within
// tolerance.
func ValidateDistribution(labels []string, probs []float64) error {
	if len(probs) != len(labels) {
		return fmt.Errorf("detector: expected %d probabilities, got %d", len(labels), len(probs))
	}

	sum := 0.0
	for i, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("detector: probability[%d]=%v out of [0,1]", i, p)
		}
		sum += p
	}

	if math.Abs(sum-1.0) > probabilityTolerance {
		return fmt.Errorf("detector: probabilities sum to %v, want 1.0 +/- %v", sum, probabilityTolerance)
	}

	return nil
}
