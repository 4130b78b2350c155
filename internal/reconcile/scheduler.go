package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/expert-buddy/expertbuddy-backend/internal/session/service"
)

// Scheduler periodically re-resolves roles for every live session
// against the authoritative profile store. Failures are logged only;
// a stale cached role stays in effect until the next sweep.
type Scheduler struct {
	registry *service.Registry
	spec     string
	cron     *cron.Cron
}

func NewScheduler(registry *service.Registry, spec string) *Scheduler {
	return &Scheduler{
		registry: registry,
		spec:     spec,
	}
}

// Start registers and launches the sweep.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(s.spec, func() {
		s.sweep()
	})
	if err != nil {
		log.Printf("reconcile: bad cron spec %q: %v", s.spec, err)
		return
	}

	log.Printf("reconcile: scheduler started (%s)", s.spec)
	c.Start()
	s.cron = c
}

// Stop halts the sweep, waiting for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *Scheduler) sweep() {
	s.registry.Each(func(m *service.Manager) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.ResolveRole(ctx); err != nil {
			log.Printf("reconcile: %v", err)
		}
	})
}
