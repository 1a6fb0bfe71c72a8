package services

import (
	"context"
	"sync"
	"time"

	"ainews/internal/core"
	"ainews/internal/features/digest/models"
)

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// SchedulerService runs the pipeline periodically inside the server process
type SchedulerService struct {
	runner   Runner
	logger   *core.Logger
	config   *models.SchedulerConfig
	runMu    sync.Mutex
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(runner Runner, logger *core.Logger, config *models.SchedulerConfig) *SchedulerService {
	return &SchedulerService{
		runner: runner,
		logger: logger,
		config: config,
	}
}

// Start begins the scheduler loop
func (s *SchedulerService) Start(ctx context.Context) error {
	s.logger.Info("Starting digest scheduler", "interval", s.config.Interval, "run_on_start", s.config.RunOnStart)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(loopCtx)

	return nil
}

// Stop cancels any in-flight run and waits for the loop to exit
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping digest scheduler")
		if s.cancel != nil {
			s.cancel()
		}
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs the pipeline immediately. Runs never overlap: a call made while
// another run is in progress waits for it to finish.
func (s *SchedulerService) RunNow(ctx context.Context) (*models.RunReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.runner.Run(ctx)
}

func (s *SchedulerService) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	report, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("Scheduled pipeline run failed", "error", err)
		return
	}
	s.logger.Info("Scheduled pipeline run completed", "run_id", report.RunID, "picks", report.Picks)
}
