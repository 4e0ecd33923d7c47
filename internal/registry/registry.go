// Package registry builds the name -> Detector map the compute engine
// dispatches requests against.
package registry

import (
	"context"

	"github.com/ClusterCockpit/cc-compute-worker/internal/catalog"
	"github.com/ClusterCockpit/cc-compute-worker/internal/detector"
	"github.com/ClusterCockpit/cc-compute-worker/internal/weights"
	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
)

// Registry is the frozen-after-boot name -> Detector map. It is passed
// into the engine as an explicit dependency rather than kept as a
// package-level singleton.
type Registry struct {
	detectors map[string]detector.Detector
}

// New resolves every signature returned by provider into a live,
// weights-loaded Detector. A failure at any of the three steps (resolve
// class_ref, fetch weights, load weights) is logged at WARNING and that
// detector is skipped; it never aborts construction. The registry's keys
// are always a subset of the catalog's names.
func New(ctx context.Context, provider catalog.Provider, store weights.Store) (*Registry, error) {
	signatures, err := provider.List(ctx)
	if err != nil {
		return nil, err
	}

	r := &Registry{detectors: make(map[string]detector.Detector, len(signatures))}
	for _, sig := range signatures {
		d, err := loadOne(ctx, sig, store)
		if err != nil {
			log.Warnf("registry: could not load detector %q (run_id=%s, class_ref=%s): %v",
				sig.Name, sig.RunID, sig.ClassRef, err)
			continue
		}
		r.detectors[sig.Name] = d
		log.Infof("registry: loaded detector %q (run_id=%s)", sig.Name, sig.RunID)
	}

	return r, nil
}

func loadOne(ctx context.Context, sig catalog.Signature, store weights.Store) (detector.Detector, error) {
	d, err := detector.New(sig.ClassRef)
	if err != nil {
		return nil, err
	}

	blob, err := store.Load(ctx, sig.RunID)
	if err != nil {
		return nil, err
	}

	if err := d.LoadWeights(blob); err != nil {
		return nil, err
	}

	return d, nil
}

// ByName performs an O(1) lookup; the second return value is false when
// name is absent (either unknown to the catalog, or known but failed to
// load).
func (r *Registry) ByName(name string) (detector.Detector, bool) {
	d, ok := r.detectors[name]
	return d, ok
}

// Len reports how many detectors are live. Primarily used by tests and
// the periodic health-log tick.
func (r *Registry) Len() int {
	return len(r.detectors)
}
