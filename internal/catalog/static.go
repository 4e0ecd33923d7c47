package catalog

import (
	"context"

	"github.com/google/uuid"
)

// StaticListProvider returns a fixed, in-memory signature list. Used by
// tests and offline deploys that don't have a relational catalog.
type StaticListProvider struct {
	signatures []Signature
}

// NewStaticListProvider wraps signatures as a Provider.
func NewStaticListProvider(signatures []Signature) *StaticListProvider {
	return &StaticListProvider{signatures: signatures}
}

func (p *StaticListProvider) List(_ context.Context) ([]Signature, error) {
	out := make([]Signature, len(p.signatures))
	copy(out, p.signatures)
	return out, nil
}

// MockProvider always returns a single synthetic detector signature.
type MockProvider struct{}

func (MockProvider) List(_ context.Context) ([]Signature, error) {
	return []Signature{
		{RunID: uuid.New(), Name: "mock", ClassRef: "mock"},
	}, nil
}
