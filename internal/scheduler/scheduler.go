// Package scheduler starts the daily posting cycle process on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"lawjobs-workers/internal/common/config"
	"lawjobs-workers/internal/common/logger"
)

// ProcessStarter creates a workflow instance.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

// Scheduler wraps robfig/cron and fires one posting cycle per tick.
type Scheduler struct {
	cron      *cron.Cron
	starter   ProcessStarter
	processID string
	spec      string
	runOnBoot bool
	location  *time.Location
	logger    logger.Logger
	now       func() time.Time
}

func New(cfg config.SchedulerConfig, starter ProcessStarter, log logger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		starter:   starter,
		processID: cfg.ProcessID,
		spec:      cfg.Spec,
		runOnBoot: cfg.RunOnBoot,
		location:  loc,
		logger:    log.WithFields(map[string]interface{}{"component": "scheduler"}),
		now:       time.Now,
	}, nil
}

// Start registers the cycle and starts the cron loop. With run_on_boot one
// cycle is started immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.trigger(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", map[string]interface{}{
		"spec":     s.spec,
		"timezone": s.location.String(),
		"process":  s.processID,
	})

	if s.runOnBoot {
		go s.trigger(ctx)
	}
	return nil
}

// Stop halts the cron loop and waits for a running trigger.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped", nil)
}

// Next returns the next scheduled fire time after from.
func (s *Scheduler) Next(from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from.In(s.location)), nil
}

// Trigger starts one posting cycle now and returns its run id.
func (s *Scheduler) Trigger(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	key, err := s.starter.StartProcess(ctx, s.processID, map[string]interface{}{
		"runId":     runID,
		"startedAt": s.now().In(s.location).Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("start %s: %w", s.processID, err)
	}
	s.logger.Info("posting cycle started", map[string]interface{}{
		"runId":              runID,
		"processInstanceKey": key,
	})
	return runID, nil
}

func (s *Scheduler) trigger(ctx context.Context) {
	if _, err := s.Trigger(ctx); err != nil {
		s.logger.Error("posting cycle not started", map[string]interface{}{"error": err})
	}
}
