// Package engine glues the detector registry and the message broker
// together: it installs a handler that takes a request already decoded by
// the broker, dispatches it by detector name, and returns the response
// for the broker to encode and publish.
package engine

import (
	"context"

	"github.com/ClusterCockpit/cc-compute-worker/internal/broker"
	"github.com/ClusterCockpit/cc-compute-worker/internal/detector"
	"github.com/ClusterCockpit/cc-compute-worker/internal/registry"
	"github.com/ClusterCockpit/cc-compute-worker/internal/wire"
	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
)

// Engine dispatches decoded requests to the registry and exposes the
// broker's lifecycle.
type Engine struct {
	registry *registry.Registry
	broker   broker.Broker
}

// New builds an Engine over reg and b, binding its handler into b. There
// is no default-fallback detector: an unknown name always yields FAILED.
func New(reg *registry.Registry, b broker.Broker) (*Engine, error) {
	e := &Engine{registry: reg, broker: b}
	if err := b.Bind(e.handle); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) handle(req wire.ComputeRequest) wire.ComputeResponse {
	if !req.HasDetectorName || req.DetectorName == "" {
		return wire.Failed(req.RequestID)
	}

	d, ok := e.registry.ByName(req.DetectorName)
	if !ok {
		return wire.Failed(req.RequestID)
	}

	verdict, err := predict(d, req.Content)
	if err != nil {
		log.Warnf("engine: prediction failed for request %q on detector %q: %v",
			req.RequestID, req.DetectorName, err)
		return wire.Failed(req.RequestID)
	}

	return wire.ComputeResponse{
		RequestID: req.RequestID,
		Status:    wire.StatusSuccess,
		Verdict:   verdict,
	}
}

// predict runs the detector and validates that its output is a proper
// probability distribution before building the wire verdict.
func predict(d detector.Detector, content string) (*wire.Verdict, error) {
	labels := d.Labels()

	probs, err := d.Predict(content)
	if err != nil {
		return nil, err
	}

	if err := detector.ValidateDistribution(labels, probs); err != nil {
		return nil, err
	}

	scores := make([]wire.LabelScore, len(labels))
	for i, label := range labels {
		scores[i] = wire.LabelScore{Label: label, Probability: probs[i]}
	}
	return &wire.Verdict{Labels: scores}, nil
}

func (e *Engine) Start(ctx context.Context) error { return e.broker.Start(ctx) }
func (e *Engine) Stop(ctx context.Context) error  { return e.broker.Stop(ctx) }
func (e *Engine) Close() error                    { return e.broker.Close() }
