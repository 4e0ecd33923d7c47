package detector

import "errors"

func init() {
	Register("broken", func() Detector { return &Broken{} })
	Register("crashy", func() Detector { return &Crashy{} })
}

// Broken always fails LoadWeights, exercising the registry's per-detector
// load-failure isolation: one bad signature must not keep the rest of the
// catalog from loading.
type Broken struct{}

func (b *Broken) Labels() []string                { return []string{"Human", "AI"} }
func (b *Broken) Predict(string) ([]float64, error) { return []float64{0.5, 0.5}, nil }
func (b *Broken) StoreWeights() ([]byte, error)    { return nil, errors.New("broken: cannot store") }
func (b *Broken) LoadWeights([]byte) error         { return ErrMalformedWeights }

// Crashy loads successfully but its Predict always fails: the consumer
// must keep producing FAILED responses indefinitely rather than dying
// with the detector.
type Crashy struct{}

func (c *Crashy) Labels() []string { return []string{"Human", "AI"} }

func (c *Crashy) Predict(string) ([]float64, error) {
	return nil, errors.New("crashy: prediction always fails")
}

func (c *Crashy) StoreWeights() ([]byte, error) { return []byte{}, nil }
func (c *Crashy) LoadWeights([]byte) error      { return nil }
