package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/krishichain/internal/config"
	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// Exporter is the reporting operation the scheduler triggers.
type Exporter interface {
	ExportToSheet(ctx context.Context) (models.LedgerSummary, error)
}

// Scheduler runs the periodic ledger export.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler builds a scheduler evaluating cfg.CronSchedule (standard
// five-field cron) in cfg.Timezone.
func NewScheduler(cfg config.ReportingConfig, exporter Exporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		exporter: exporter,
		schedule: cfg.CronSchedule,
		timeout:  2 * time.Minute,
		logger:   logger,
	}, nil
}

// Start registers the export job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runExport); err != nil {
		return fmt.Errorf("schedule ledger export %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runExport() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.exporter.ExportToSheet(ctx)
	if err != nil {
		s.logger.Error("scheduled ledger export failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled ledger export complete", zap.Int("records", summary.TotalRecords))
}
