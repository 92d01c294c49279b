package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/store"
	"github.com/vzwork/locus/internal/types"

	"github.com/sirupsen/logrus"
)

const (
	jobLockPrefix = "lock:job:"
	jobRunsKey    = "job:runs"
)

// job is one recurring unit of background work.
type job struct {
	name    string
	lockTTL time.Duration
	next    func(now time.Time) time.Time
	run     func(now time.Time) error
}

// JobScheduler owns the recurring statistics and rebalance jobs. Each job
// runs in its own goroutine on its own cadence; a store lock keeps multiple
// instances from running the same job concurrently.
type JobScheduler struct {
	processor  *StatisticsProcessor
	rebalancer *TreeRebalancer
	store      store.Store
	settings   types.SchedulerConfig

	jobs   []job
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewJobScheduler creates a new job scheduler.
func NewJobScheduler(
	processor *StatisticsProcessor,
	rebalancer *TreeRebalancer,
	storage store.Store,
	configManager types.ConfigManager,
) *JobScheduler {
	s := &JobScheduler{
		processor:  processor,
		rebalancer: rebalancer,
		store:      storage,
		settings:   configManager.GetSchedulerConfig(),
		stopCh:     make(chan struct{}),
	}
	s.jobs = s.buildJobs()
	return s
}

// buildJobs wires the six recurring triggers.
func (s *JobScheduler) buildJobs() []job {
	anchorHour := s.settings.StatisticsHour
	dayInterval := time.Duration(s.settings.RebalanceDayIntervalMinutes) * time.Minute
	weekInterval := time.Duration(s.settings.RebalanceWeekIntervalHours) * time.Hour

	return []job{
		{
			name:    "statistics",
			lockTTL: 2 * time.Hour,
			next:    func(now time.Time) time.Time { return nextDailyAt(now, anchorHour, 0) },
			run:     s.runStatistics,
		},
		{
			name:    "rebalance_day",
			lockTTL: dayInterval,
			next:    func(now time.Time) time.Time { return now.Add(dayInterval) },
			run:     func(now time.Time) error { return s.rebalancer.Rebalance(models.TimeframeDay) },
		},
		{
			name:    "rebalance_week",
			lockTTL: time.Hour,
			next:    func(now time.Time) time.Time { return now.Add(weekInterval) },
			run:     func(now time.Time) error { return s.rebalancer.Rebalance(models.TimeframeWeek) },
		},
		{
			name:    "rebalance_month",
			lockTTL: 2 * time.Hour,
			next:    func(now time.Time) time.Time { return nextDailyAt(now, anchorHour, 5) },
			run:     func(now time.Time) error { return s.rebalancer.Rebalance(models.TimeframeMonth) },
		},
		{
			name:    "rebalance_year",
			lockTTL: 2 * time.Hour,
			next:    func(now time.Time) time.Time { return nextWeekly(now, time.Monday, anchorHour, 5) },
			run:     func(now time.Time) error { return s.rebalancer.Rebalance(models.TimeframeYear) },
		},
		{
			name:    "rebalance_all",
			lockTTL: 2 * time.Hour,
			next:    func(now time.Time) time.Time { return nextYearly(now, anchorHour, 5) },
			run:     func(now time.Time) error { return s.rebalancer.Rebalance(models.TimeframeAll) },
		},
	}
}

// runStatistics performs the daily pass followed by the adaptive scheduled pass.
func (s *JobScheduler) runStatistics(now time.Time) error {
	if _, err := s.processor.RunDaily(now); err != nil {
		return fmt.Errorf("daily pass: %w", err)
	}
	if _, err := s.processor.RunScheduled(now); err != nil {
		return fmt.Errorf("scheduled pass: %w", err)
	}
	return nil
}

// Start launches one runner goroutine per job.
func (s *JobScheduler) Start() {
	if s.settings.DisableJobs {
		logrus.Info("Background jobs disabled by configuration")
		return
	}

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(j)
	}
	logrus.Infof("Job scheduler started with %d jobs", len(s.jobs))
}

// Stop terminates the runners, waiting up to the context deadline.
func (s *JobScheduler) Stop(ctx context.Context) {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("Job scheduler stopped")
	case <-ctx.Done():
		logrus.Warn("Job scheduler stop timed out")
	}
}

// runLoop sleeps until a job's next fire time, runs it, and repeats.
func (s *JobScheduler) runLoop(j job) {
	defer s.wg.Done()

	for {
		timer := time.NewTimer(time.Until(j.next(time.Now())))
		select {
		case <-s.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if err := s.runJob(j); err != nil {
				logrus.WithError(err).WithField("job", j.name).Error("Background job failed")
			}
		}
	}
}

// runJob executes one job under its store lock. A held lock means another
// instance is already running the job.
func (s *JobScheduler) runJob(j job) error {
	lockKey := jobLockPrefix + j.name
	acquired, err := s.store.SetNX(lockKey, []byte("1"), j.lockTTL)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !acquired {
		logrus.WithField("job", j.name).Debug("Job lock held elsewhere, skipping run")
		return nil
	}
	defer func() {
		if err := s.store.Delete(lockKey); err != nil {
			logrus.WithError(err).WithField("job", j.name).Warn("Failed to release job lock")
		}
	}()

	start := time.Now()
	runErr := j.run(start)

	if _, err := s.store.HIncrBy(jobRunsKey, j.name, 1); err != nil {
		logrus.WithError(err).Warn("Failed to record job run counter")
	}

	if runErr != nil {
		return runErr
	}
	logrus.WithFields(logrus.Fields{
		"job":      j.name,
		"duration": time.Since(start).String(),
	}).Info("Background job finished")
	return nil
}

// Trigger runs one job by name immediately, for operational reruns. It
// reports a conflict when the job is already running.
func (s *JobScheduler) Trigger(name string) error {
	for _, j := range s.jobs {
		if j.name != name {
			continue
		}
		lockKey := jobLockPrefix + j.name
		held, err := s.store.Exists(lockKey)
		if err != nil {
			return apperrors.NewAPIError(apperrors.ErrInternalServer, err.Error())
		}
		if held {
			return apperrors.ErrTaskInProgress
		}
		return s.runJob(j)
	}
	return apperrors.NewNotFoundError(fmt.Sprintf("unknown job %q", name))
}

// JobNames lists the schedulable jobs.
func (s *JobScheduler) JobNames() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// RunCounts returns how many times each job has run since startup (or since
// the store last reset).
func (s *JobScheduler) RunCounts() (map[string]string, error) {
	counts, err := s.store.HGetAll(jobRunsKey)
	if err != nil {
		return nil, apperrors.NewAPIError(apperrors.ErrStoreRead, err.Error())
	}
	return counts, nil
}

// nextDailyAt returns the next occurrence of hour:minute, local time.
func nextDailyAt(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the next occurrence of weekday at hour:minute.
func nextWeekly(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := nextDailyAt(now, hour, minute)
	for next.Weekday() != weekday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextYearly returns the next January 1st at hour:minute.
func nextYearly(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), time.January, 1, hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}
