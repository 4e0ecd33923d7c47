package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/cc-compute-worker/internal/wire"
)

// echoHandler returns SUCCESS with a single "echo" label at probability 1
// and echoes the request_id, so each response can be matched to its
// request; the verdict itself carries nothing about the input.
func echoHandler(req wire.ComputeRequest) wire.ComputeResponse {
	return wire.ComputeResponse{
		RequestID: req.RequestID,
		Status:    wire.StatusSuccess,
		Verdict:   &wire.Verdict{Labels: []wire.LabelScore{{Label: "echo", Probability: 1}}},
	}
}

// runLifecycleContract exercises the Broker contract (spec §8 P7, P8)
// identically regardless of the concrete transport.
func runLifecycleContract(t *testing.T, b Broker) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.Bind(echoHandler))
	require.NoError(t, b.Start(ctx))
	// Starting again is a no-op, not an error.
	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Stop(ctx))
	// Stopping again is a no-op.
	require.NoError(t, b.Stop(ctx))
	require.NoError(t, b.Close())
	// Closing again is a no-op.
	require.NoError(t, b.Close())
}

func TestMemoryBrokerLifecycleContract(t *testing.T) {
	runLifecycleContract(t, NewMemoryBroker(4))
}

func TestMemoryBrokerStartWithoutBind(t *testing.T) {
	b := NewMemoryBroker(1)
	err := b.Start(context.Background())
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestMemoryBrokerDeliversAndPublishesResponse(t *testing.T) {
	b := NewMemoryBroker(4)
	require.NoError(t, b.Bind(echoHandler))
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	raw := []byte(`{"request_id":"r1","content":"hi","detector_name":"mock"}`)
	b.PublishRequest(raw)

	resp, ok := b.NextResponse(2 * time.Second)
	require.True(t, ok)
	assert.Contains(t, string(resp), `"r1"`)
	assert.Contains(t, string(resp), `"SUCCESS"`)
}

func TestMemoryBrokerMalformedRequestYieldsFailed(t *testing.T) {
	b := NewMemoryBroker(4)
	require.NoError(t, b.Bind(echoHandler))
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	b.PublishRequest([]byte(`{"content":"missing request_id"}`))

	resp, ok := b.NextResponse(2 * time.Second)
	require.True(t, ok)
	assert.Contains(t, string(resp), `"FAILED"`)
}

func TestMemoryBrokerCloseWithoutStopDrainsConsumer(t *testing.T) {
	b := NewMemoryBroker(1)
	require.NoError(t, b.Bind(echoHandler))
	require.NoError(t, b.Start(context.Background()))
	// Close without a prior Stop must still tear down the consumer
	// goroutine (regression coverage for the wasConsuming bookkeeping in
	// the shared lifecycle type).
	require.NoError(t, b.Close())
}

func TestBindAfterCloseFails(t *testing.T) {
	b := NewMemoryBroker(1)
	require.NoError(t, b.Close())
	err := b.Bind(echoHandler)
	assert.ErrorIs(t, err, ErrClosed)
}
