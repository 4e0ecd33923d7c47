package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDistributionAcceptsExactSum(t *testing.T) {
	err := ValidateDistribution([]string{"Human", "AI"}, []float64{0.5, 0.5})
	assert.NoError(t, err)
}

func TestValidateDistributionAcceptsToleratedDrift(t *testing.T) {
	err := ValidateDistribution([]string{"Human", "AI"}, []float64{0.5, 0.5 + 5e-7})
	assert.NoError(t, err)
}

func TestValidateDistributionRejectsLengthMismatch(t *testing.T) {
	err := ValidateDistribution([]string{"Human", "AI", "Mixed"}, []float64{0.5, 0.5})
	assert.Error(t, err)
}

func TestValidateDistributionRejectsOutOfBounds(t *testing.T) {
	err := ValidateDistribution([]string{"Human", "AI"}, []float64{1.5, -0.5})
	assert.Error(t, err)
}

func TestValidateDistributionRejectsBadSum(t *testing.T) {
	err := ValidateDistribution([]string{"Human", "AI"}, []float64{0.2, 0.2})
	assert.Error(t, err)
}

func TestNewUnknownClassRef(t *testing.T) {
	_, err := New("no-such-class-ref")
	assert.ErrorIs(t, err, ErrUnknownClassRef)
}

func TestNewMockRegistered(t *testing.T) {
	d, err := New("mock")
	require.NoError(t, err)
	assert.Equal(t, []string{"Human", "AI"}, d.Labels())

	probs, err := d.Predict("anything")
	require.NoError(t, err)
	require.NoError(t, ValidateDistribution(d.Labels(), probs))
}

func TestMockStoreLoadRoundTrip(t *testing.T) {
	m := NewMock()
	blob, err := m.StoreWeights()
	require.NoError(t, err)

	m2 := NewMock()
	require.NoError(t, m2.LoadWeights(blob))
	assert.Equal(t, m.labels, m2.labels)
	assert.Equal(t, m.weight, m2.weight)
}

func TestMockLoadWeightsRejectsMalformed(t *testing.T) {
	m := NewMock()
	err := m.LoadWeights([]byte("not json"))
	assert.ErrorIs(t, err, ErrMalformedWeights)
}

func TestPerplexityStoreLoadRoundTrip(t *testing.T) {
	p := NewPerplexity()
	p.bigramCounts["th"] = 10
	p.total = 100

	blob, err := p.StoreWeights()
	require.NoError(t, err)

	p2 := NewPerplexity()
	require.NoError(t, p2.LoadWeights(blob))
	assert.Equal(t, p.bigramCounts, p2.bigramCounts)
	assert.Equal(t, p.total, p2.total)

	probs, err := p2.Predict("the quick brown fox")
	require.NoError(t, err)
	require.NoError(t, ValidateDistribution(p2.Labels(), probs))
}

func TestPerplexityLoadWeightsRejectsMalformed(t *testing.T) {
	p := NewPerplexity()
	err := p.LoadWeights([]byte("not gob data"))
	assert.ErrorIs(t, err, ErrMalformedWeights)
}

func TestBrokenAlwaysFailsToLoad(t *testing.T) {
	b, err := New("broken")
	require.NoError(t, err)
	assert.ErrorIs(t, b.LoadWeights([]byte("anything")), ErrMalformedWeights)
}

func TestCrashyPredictAlwaysErrors(t *testing.T) {
	c, err := New("crashy")
	require.NoError(t, err)
	require.NoError(t, c.LoadWeights(nil))
	_, err = c.Predict("hello")
	assert.Error(t, err)
}
