package broker

import (
	"context"
	"sync"
	"time"

	"github.com/ClusterCockpit/cc-compute-worker/internal/wire"
)

// MemoryBroker is an in-process Broker backed by two buffered channels.
// It satisfies the same Broker interface as NATSBroker. The lifecycle
// contract test in broker_test.go is written against that interface; in
// this package it is run against MemoryBroker only.
type MemoryBroker struct {
	lifecycle
	source   chan []byte
	response chan []byte
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewMemoryBroker returns an idle MemoryBroker with the given channel
// capacity for both the source and response queues.
func NewMemoryBroker(capacity int) *MemoryBroker {
	return &MemoryBroker{
		source:   make(chan []byte, capacity),
		response: make(chan []byte, capacity),
	}
}

func (b *MemoryBroker) Bind(h Handler) error {
	return b.bind(h)
}

func (b *MemoryBroker) Start(_ context.Context) error {
	shouldStart, handler, err := b.beginStart()
	if err != nil || !shouldStart {
		return err
	}

	consumeCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.wg.Add(1)
	go b.consume(consumeCtx, handler)
	return nil
}

func (b *MemoryBroker) consume(ctx context.Context, handler Handler) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-b.source:
			b.deliver(raw, handler)
		}
	}
}

func (b *MemoryBroker) deliver(raw []byte, handler Handler) {
	req, err := wire.DecodeRequest(raw)
	var resp wire.ComputeResponse
	if err != nil {
		resp = wire.Failed(wire.BestEffortRequestID(raw))
	} else {
		resp = handler(req)
	}

	encoded, err := wire.EncodeResponse(resp)
	if err != nil {
		// Encoding the response itself failed; nothing downstream can do
		// anything useful with a malformed body, so drop it rather than
		// wedge the consumer.
		return
	}
	b.response <- encoded
}

func (b *MemoryBroker) Stop(_ context.Context) error {
	if b.beginStop() {
		b.cancel()
		b.wg.Wait()
	}
	return nil
}

func (b *MemoryBroker) Close() error {
	alreadyClosed, wasConsuming := b.beginClose()
	if alreadyClosed {
		return nil
	}
	if wasConsuming {
		b.cancel()
		b.wg.Wait()
	}
	return nil
}

// PublishRequest enqueues a raw request body as if it had arrived on the
// source queue. Test-only.
func (b *MemoryBroker) PublishRequest(raw []byte) {
	b.source <- raw
}

// NextResponse blocks up to timeout for the next published response body.
func (b *MemoryBroker) NextResponse(timeout time.Duration) ([]byte, bool) {
	select {
	case resp := <-b.response:
		return resp, true
	case <-time.After(timeout):
		return nil, false
	}
}
