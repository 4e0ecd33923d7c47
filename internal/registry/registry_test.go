package registry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-compute-worker/internal/catalog"
	_ "github.com/ClusterCockpit/cc-compute-worker/internal/detector"
	"github.com/ClusterCockpit/cc-compute-worker/internal/weights"
)

func TestNewSkipsUnresolvableClassRef(t *testing.T) {
	goodRunID := uuid.New()
	sigs := []catalog.Signature{
		{RunID: goodRunID, Name: "good", ClassRef: "mock"},
		{RunID: uuid.New(), Name: "bad", ClassRef: "no-such-class-ref"},
	}
	provider := catalog.NewStaticListProvider(sigs)
	store := weights.NewMemoryStore()
	require.NoError(t, store.Store(context.Background(), goodRunID, []byte(`{"labels":["Human","AI"],"weight":0.5}`)))

	reg, err := New(context.Background(), provider, store)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	_, ok := reg.ByName("good")
	assert.True(t, ok)
	_, ok = reg.ByName("bad")
	assert.False(t, ok)
}

func TestNewSkipsDetectorWithMissingWeights(t *testing.T) {
	sigs := []catalog.Signature{
		{RunID: uuid.New(), Name: "no-weights", ClassRef: "mock"},
	}
	provider := catalog.NewStaticListProvider(sigs)
	store := weights.NewMemoryStore() // nothing stored for this run_id

	reg, err := New(context.Background(), provider, store)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestNewSkipsDetectorWithMalformedWeights(t *testing.T) {
	brokenRunID := uuid.New()
	fineRunID := uuid.New()
	sigs := []catalog.Signature{
		{RunID: brokenRunID, Name: "broken-one", ClassRef: "broken"},
		{RunID: fineRunID, Name: "fine", ClassRef: "mock"},
	}
	provider := catalog.NewStaticListProvider(sigs)
	store := weights.NewMemoryStore()
	require.NoError(t, store.Store(context.Background(), brokenRunID, []byte("irrelevant")))
	require.NoError(t, store.Store(context.Background(), fineRunID, []byte(`{"labels":["Human","AI"],"weight":0.5}`)))

	reg, err := New(context.Background(), provider, store)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	_, ok := reg.ByName("broken-one")
	assert.False(t, ok)
	_, ok = reg.ByName("fine")
	assert.True(t, ok)
}

func TestNewPropagatesProviderError(t *testing.T) {
	_, err := New(context.Background(), failingProvider{}, weights.NewMemoryStore())
	assert.Error(t, err)
}

type failingProvider struct{}

func (failingProvider) List(context.Context) ([]catalog.Signature, error) {
	return nil, assert.AnError
}
