package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/metrics"
)

type ServiceParams struct {
	Logger   *logger.Logger
	Schedule *Schedule
	Locker   Locker
	Metrics  *metrics.CronJobMetrics
	// JobTimeout caps a single run. It should not exceed the lock TTL.
	JobTimeout time.Duration
}

// Service drives a Schedule. Every job runs once at start-up and then on its
// own cadence. A job whose lock is held elsewhere is skipped until its next
// slot.
type Service struct {
	logg       *logger.Logger
	schedule   *Schedule
	locker     Locker
	metrics    *metrics.CronJobMetrics
	jobTimeout time.Duration
	now        func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Locker == nil:
		return nil, errors.New("locker required")
	case params.Schedule == nil || len(params.Schedule.entries) == 0:
		return nil, errors.New("schedule has no jobs")
	}
	timeout := params.JobTimeout
	if timeout <= 0 {
		timeout = defaultLockTTL
	}
	return &Service{
		logg:       params.Logger,
		schedule:   params.Schedule,
		locker:     params.Locker,
		metrics:    params.Metrics,
		jobTimeout: timeout,
		now:        time.Now,
	}, nil
}

// Run blocks until ctx is canceled and returns ctx.Err().
func (s *Service) Run(ctx context.Context) error {
	next := make(map[string]time.Time, len(s.schedule.entries))
	s.runDue(ctx, next)

	ticker := time.NewTicker(s.schedule.tick())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx, next)
		}
	}
}

// runDue runs each entry whose slot has arrived and books its next slot.
func (s *Service) runDue(ctx context.Context, next map[string]time.Time) {
	for _, entry := range s.schedule.entries {
		if ctx.Err() != nil {
			return
		}
		name := entry.Job.Name()
		now := s.now()
		if due, ok := next[name]; ok && now.Before(due) {
			continue
		}
		next[name] = now.Add(entry.Every)
		s.runOne(ctx, entry.Job)
	}
}

func (s *Service) runOne(ctx context.Context, job Job) {
	name := job.Name()
	ctx = s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	unlock, ok, err := s.locker.TryLock(ctx, name)
	if err != nil {
		s.logg.Error(ctx, "cron.lock_failed", err)
		s.metrics.Record(name, metrics.CronFailed, 0)
		return
	}
	if !ok {
		s.logg.Debug(ctx, "cron.skipped_locked")
		s.metrics.Record(name, metrics.CronSkipped, 0)
		return
	}
	defer func() {
		// release even when ctx is already canceled
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.unlock_failed", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := s.now()
	err = runSafely(runCtx, job)
	elapsed := s.now().Sub(start)
	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job_failed", err)
		s.metrics.Record(name, metrics.CronFailed, elapsed)
		return
	}
	s.logg.Info(ctx, "cron.job_completed")
	s.metrics.Record(name, metrics.CronSucceeded, elapsed)
}

// runSafely turns a job panic into an error so one bad job cannot stop the
// worker.
func runSafely(ctx context.Context, job Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}
	}()
	return job.Run(ctx)
}
