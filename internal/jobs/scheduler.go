package jobs

import (
	"context"
	"fmt"
	"time"

	"bot-dashboard/internal/config"
	"bot-dashboard/internal/service"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs periodic maintenance: the product status sweep and, when
// configured, the phone registry cleanup.
type Scheduler struct {
	cron     *cron.Cron
	products service.ProductService
	phones   service.PhoneService
	cfg      config.JobsConfig
	logger   *zap.Logger
}

// NewScheduler registers the configured jobs. It fails on an invalid cron spec.
func NewScheduler(cfg config.JobsConfig, products service.ProductService, phones service.PhoneService, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC), cron.WithParser(cronParser)),
		products: products,
		phones:   phones,
		cfg:      cfg,
		logger:   logger.Named("jobs"),
	}

	if cfg.StatusRefreshSpec != "" {
		if _, err := s.cron.AddFunc(cfg.StatusRefreshSpec, s.RefreshStatuses); err != nil {
			return nil, fmt.Errorf("invalid status refresh schedule %q: %w", cfg.StatusRefreshSpec, err)
		}
	}

	if cfg.PhoneCleanupSpec != "" {
		if _, err := s.cron.AddFunc(cfg.PhoneCleanupSpec, s.CleanupPhones); err != nil {
			return nil, fmt.Errorf("invalid phone cleanup schedule %q: %w", cfg.PhoneCleanupSpec, err)
		}
	}

	return s, nil
}

// Start runs the scheduler in the background
func (s *Scheduler) Start() {
	s.logger.Info("Starting job scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
	}
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// RefreshStatuses rewrites drifted product statuses
func (s *Scheduler) RefreshStatuses() {
	defer s.recoverJob("refresh_statuses")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	changed, err := s.products.RefreshStatuses(ctx)
	if err != nil {
		s.logger.Error("Status refresh failed", zap.Error(err))
		return
	}
	s.logger.Info("Status refresh completed", zap.Int64("changed", changed))
}

// CleanupPhones purges old registry records
func (s *Scheduler) CleanupPhones() {
	defer s.recoverJob("cleanup_phones")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.phones.CleanupOldRecords(ctx, s.cfg.PhoneCleanupDays)
	if err != nil {
		s.logger.Error("Phone cleanup rejected", zap.Error(err))
		return
	}
	if !result.Success {
		s.logger.Warn("Phone cleanup failed", zap.String("message", result.Message))
		return
	}
	s.logger.Info("Phone cleanup completed", zap.Int("deleted", result.DeletedCount))
}

func (s *Scheduler) recoverJob(job string) {
	if err := recover(); err != nil {
		s.logger.Error("Job panicked", zap.String("job", job), zap.Any("error", err))
	}
}
