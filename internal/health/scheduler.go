// Package health runs a periodic background log tick reporting how many
// detectors the registry holds. Broker status is not reported.
package health

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/ClusterCockpit/cc-compute-worker/internal/registry"
	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
)

// Ticker owns a gocron scheduler running a single recurring health-log
// job. It is started alongside the engine and shut down with it.
type Ticker struct {
	scheduler gocron.Scheduler
}

// NewTicker builds a Ticker that logs reg's detector count every
// interval. It does not start the scheduler; call Start.
func NewTicker(reg *registry.Registry, interval time.Duration) (*Ticker, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			log.Infof("health: %d detector(s) loaded", reg.Len())
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Ticker{scheduler: s}, nil
}

// Start begins the recurring tick. Non-blocking.
func (t *Ticker) Start() {
	t.scheduler.Start()
}

// Shutdown stops the scheduler, waiting for any in-flight tick to
// finish.
func (t *Ticker) Shutdown() error {
	return t.scheduler.Shutdown()
}
