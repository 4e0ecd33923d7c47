// Package catalog produces the list of deployable detector signatures
// consumed once at registry construction.
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Signature is a catalog row describing one deployable detector.
type Signature struct {
	RunID    uuid.UUID
	Name     string
	ClassRef string
}

// Provider lists the detector signatures known to the catalog. List is
// called exactly once, during registry construction; an error is fatal
// to startup.
type Provider interface {
	List(ctx context.Context) ([]Signature, error)
}
