// Package broker abstracts consume/publish over a message queue:
// an identical contract for a real NATS-backed transport and an
// in-memory broker used by tests.
package broker

import (
	"context"
	"errors"
	"sync"

	"github.com/ClusterCockpit/cc-compute-worker/internal/wire"
)

// Handler processes one decoded request and returns its response. It
// must never panic across the broker boundary: implementations run it,
// but the stability boundary lives in the engine that installs the
// handler.
type Handler func(wire.ComputeRequest) wire.ComputeResponse

// Broker is the contract both the real and in-memory transports satisfy.
type Broker interface {
	// Bind installs handler. Must be called before Start.
	Bind(handler Handler) error
	// Start begins asynchronous consumption. Non-blocking, idempotent.
	Start(ctx context.Context) error
	// Stop halts consumption, letting an in-flight delivery finish.
	// Idempotent.
	Stop(ctx context.Context) error
	// Close releases transport resources; implies Stop. Terminal.
	Close() error
}

// state implements the explicit lifecycle state machine:
// idle -> (bind) -> bound -> (start) -> consuming -> (stop) -> bound ->
// (close) -> closed. Kept as plain state, not implicit goroutine
// lifetime, so idempotent Start/Stop is directly testable.
type state int

const (
	stateIdle state = iota
	stateBound
	stateConsuming
	stateClosed
)

var (
	// ErrNotBound is returned by Start when Bind has not been called.
	ErrNotBound = errors.New("broker: not bound")
	// ErrClosed is returned by Bind and Start after Close. Stop and Close
	// after Close are no-ops.
	ErrClosed = errors.New("broker: closed")
)

// lifecycle centralizes the state-machine bookkeeping shared by both
// broker implementations, so each only needs to supply its transport
// specific consume/publish logic.
type lifecycle struct {
	mu      sync.Mutex
	st      state
	handler Handler
}

func (l *lifecycle) bind(h Handler) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st == stateClosed {
		return ErrClosed
	}
	l.handler = h
	if l.st == stateIdle {
		l.st = stateBound
	}
	return nil
}

// beginStart transitions bound -> consuming and reports whether the
// caller should actually start a consumer goroutine (false means either
// already consuming, i.e. idempotent no-op, or not bound/closed).
func (l *lifecycle) beginStart() (shouldStart bool, h Handler, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.st {
	case stateClosed:
		return false, nil, ErrClosed
	case stateConsuming:
		return false, nil, nil
	case stateIdle:
		return false, nil, ErrNotBound
	default: // stateBound
		l.st = stateConsuming
		return true, l.handler, nil
	}
}

// beginStop transitions consuming -> bound and reports whether the
// caller should actually tear down its consumer goroutine.
func (l *lifecycle) beginStop() (shouldStop bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st != stateConsuming {
		return false
	}
	l.st = stateBound
	return true
}

// beginClose transitions to stateClosed and reports whether it was
// already closed (idempotent no-op) and, if not, whether it was
// consuming at the time (so the caller knows to tear down its consumer
// before releasing transport resources).
func (l *lifecycle) beginClose() (alreadyClosed, wasConsuming bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.st == stateClosed {
		return true, false
	}
	wasConsuming = l.st == stateConsuming
	l.st = stateClosed
	return false, wasConsuming
}
