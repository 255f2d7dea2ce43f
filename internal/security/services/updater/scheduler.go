package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

// Runner is the job a Scheduler fires.
type Runner interface {
	Run(ctx context.Context) domain.UpdateState
}

// Scheduler fires periodic update checks on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	runner   Runner
	logger   log.Logger
}

// NewScheduler parses schedule (standard five-field cron or a descriptor such as
// "@every 12h") and returns a stopped Scheduler.
func NewScheduler(schedule string, runner Runner, logger log.Logger) (*Scheduler, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid update schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Scheduler{
		cron:     cron.New(),
		schedule: sched,
		runner:   runner,
		logger:   logger,
	}, nil
}

// Start registers the job and starts the cron loop. The loop stops when ctx
// is cancelled; checks already running finish with ctx cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		st := s.runner.Run(ctx)
		s.logger.Debug(map[string]any{"offers": len(st.Response)}, "Scheduled update check finished")
	}))
	s.cron.Start()
	s.logger.Info(map[string]any{"next": s.schedule.Next(time.Now())}, "Update scheduler started")

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		s.logger.Info(nil, "Update scheduler stopped")
	}()
}
