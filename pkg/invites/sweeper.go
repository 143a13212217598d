package invites

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/taskhive/pkg/observability"
)

// Sweeper periodically purges expired invites.
type Sweeper struct {
	service  *Service
	cron     *cron.Cron
	schedule string
	logger   *observability.Logger
	swept    prometheus.Counter
}

// NewSweeper creates a sweeper on the given cron schedule (for example
// "@hourly"). The counter, if non-nil, accumulates the number of purged
// invites.
func NewSweeper(service *Service, schedule string, logger *observability.Logger, swept prometheus.Counter) *Sweeper {
	return &Sweeper{
		service:  service,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger,
		swept:    swept,
	}
}

// Start registers the job and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.service.SweepExpired(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Warn("invite sweep failed")
		}
		return
	}
	if s.swept != nil {
		s.swept.Add(float64(removed))
	}
	if removed > 0 && s.logger != nil {
		s.logger.WithField("removed", removed).Info("purged expired invites")
	}
}
