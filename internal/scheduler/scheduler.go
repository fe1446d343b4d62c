// internal/scheduler/scheduler.go
package scheduler

import (
	"context"

	"membership-service/internal/config"
	"membership-service/internal/service/archival"
	"membership-service/internal/service/renewal"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers the renewal sweep and the order archival batch on cron
// schedules. Both jobs are the same operations the authenticated HTTP
// endpoints expose; overlapping triggers are safe because the sweep takes
// per-subscription leases and both jobs are idempotent on re-run.
type Scheduler struct {
	cron            *cron.Cron
	renewalService  *renewal.RenewalService
	archivalService *archival.ArchivalService
	logger          *zap.Logger
	cfg             config.AppConfig
}

func NewScheduler(
	renewalService *renewal.RenewalService,
	archivalService *archival.ArchivalService,
	logger *zap.Logger,
	cfg config.AppConfig,
) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &Scheduler{
		cron:            c,
		renewalService:  renewalService,
		archivalService: archivalService,
		logger:          logger,
		cfg:             cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.cfg.RenewalSchedule, s.runRenewalSweep); err != nil {
		s.logger.Error("failed to schedule renewal sweep", zap.Error(err))
	} else {
		s.logger.Info("scheduled renewal sweep", zap.String("schedule", s.cfg.RenewalSchedule))
	}

	if _, err := s.cron.AddFunc(s.cfg.ArchivalSchedule, s.runOrderArchival); err != nil {
		s.logger.Error("failed to schedule order archival", zap.Error(err))
	} else {
		s.logger.Info("scheduled order archival", zap.String("schedule", s.cfg.ArchivalSchedule))
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runRenewalSweep() {
	s.logger.Info("starting scheduled renewal sweep")

	result, err := s.renewalService.Sweep(context.Background())
	if err != nil {
		s.logger.Error("scheduled renewal sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled renewal sweep finished",
		zap.Int("renewed", result.Renewed),
		zap.Int("expired", result.Expired),
	)
}

func (s *Scheduler) runOrderArchival() {
	s.logger.Info("starting scheduled order archival")

	result, err := s.archivalService.ArchiveCompletedOrders(context.Background())
	if err != nil {
		s.logger.Error("scheduled order archival failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled order archival finished", zap.Int("archived_count", result.ArchivedCount))
}
