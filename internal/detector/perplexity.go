package detector

import (
	"bytes"
	"encoding/gob"
	"math"
	"strings"
)

func init() {
	Register("perplexity", func() Detector { return NewPerplexity() })
}

// Perplexity is a minimal statistical AI-text detector: it scores text by
// how well a character-bigram frequency table (fit on known human text)
// predicts it, then folds that score into a Human/AI split. Its weights
// blob is a gob-encoded frequency table, which gives LoadWeights
// something concrete to reject as malformed.
type Perplexity struct {
	bigramCounts map[string]int
	total        int
}

// NewPerplexity returns an untrained Perplexity detector; LoadWeights
// must be called before Predict produces a non-trivial result.
func NewPerplexity() *Perplexity {
	return &Perplexity{bigramCounts: map[string]int{}}
}

func (p *Perplexity) Labels() []string { return []string{"Human", "AI"} }

func (p *Perplexity) Predict(text string) ([]float64, error) {
	score := p.averageLogLikelihood(text)
	// Higher average log-likelihood under the human bigram model implies
	// more human-like text; squash to (0,1) with a logistic curve.
	humanProb := 1.0 / (1.0 + math.Exp(-score))
	return []float64{humanProb, 1 - humanProb}, nil
}

func (p *Perplexity) averageLogLikelihood(text string) float64 {
	runes := []rune(strings.ToLower(text))
	if len(runes) < 2 || p.total == 0 {
		return 0
	}

	sum := 0.0
	n := 0
	for i := 0; i+1 < len(runes); i++ {
		key := string(runes[i : i+2])
		count := p.bigramCounts[key]
		// Laplace smoothing keeps unseen bigrams from producing -Inf.
		prob := float64(count+1) / float64(p.total+len(p.bigramCounts)+1)
		sum += math.Log(prob)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

type perplexityWeights struct {
	BigramCounts map[string]int
	Total        int
}

func (p *Perplexity) StoreWeights() ([]byte, error) {
	var buf bytes.Buffer
	w := perplexityWeights{BigramCounts: p.bigramCounts, Total: p.total}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Perplexity) LoadWeights(blob []byte) error {
	var w perplexityWeights
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&w); err != nil {
		return ErrMalformedWeights
	}
	if w.BigramCounts == nil || w.Total < 0 {
		return ErrMalformedWeights
	}
	p.bigramCounts = w.BigramCounts
	p.total = w.Total
	return nil
}
