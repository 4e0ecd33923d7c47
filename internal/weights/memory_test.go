package weights

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLoadMissingReturnsNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrWeightsNotFound)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	runID := uuid.New()
	data := []byte("weights-blob")

	require.NoError(t, store.Store(context.Background(), runID, data))
	got, err := store.Load(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
