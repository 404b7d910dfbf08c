package cron_feature

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crm-gateway/internal/config"
	"crm-gateway/internal/features/account"
	sync_feature "crm-gateway/internal/features/sync"
	"crm-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type AccountLister interface {
	GetActiveAccounts(ctx context.Context) []account.CrmAccount
}

type AccountSyncer interface {
	ShouldSync(ctx context.Context, accountID string, intervalMinutes int) bool
	SyncAccountLeads(ctx context.Context, accountID string) (*sync_feature.SyncStatus, error)
}

type WebhookLogPurger interface {
	ClearOldLogs(ctx context.Context, hoursOld int) int
}

type SchedulerService interface {
	Start() error
	Stop()
	ListJobs() []ScheduledJob
	Trigger(ctx context.Context, name JobName) (*JobRun, error)
	GetRuns(ctx context.Context, name JobName, limit int) ([]JobRun, error)
	RunAutoSync(ctx context.Context) *JobRun
	PurgeWebhookLogs(ctx context.Context) *JobRun
}

type SchedulerServiceImpl struct {
	Accounts AccountLister
	Syncer   AccountSyncer
	Purger   WebhookLogPurger
	Repo     JobRunRepository
	Config   *config.Config
	Logger   *zap.Logger

	scheduler  *cron.Cron
	jobEntries map[JobName]cron.EntryID
	lastRuns   map[JobName]time.Time
	mu         sync.RWMutex
	now        func() time.Time
}

func NewSchedulerService(
	accounts AccountLister,
	syncer AccountSyncer,
	purger WebhookLogPurger,
	repo JobRunRepository,
	cfg *config.Config,
	logger *zap.Logger,
) SchedulerService {
	return &SchedulerServiceImpl{
		Accounts:   accounts,
		Syncer:     syncer,
		Purger:     purger,
		Repo:       repo,
		Config:     cfg,
		Logger:     logger,
		jobEntries: make(map[JobName]cron.EntryID),
		lastRuns:   make(map[JobName]time.Time),
		now:        time.Now,
	}
}

func (s *SchedulerServiceImpl) schedules() map[JobName]string {
	return map[JobName]string{
		JobAutoSync:         s.Config.AutoSyncSchedule,
		JobPurgeWebhookLogs: s.Config.WebhookLogPurgeSchedule,
	}
}

// Start registers every job with a non-empty schedule and starts the cron
// loop. Overlapping runs of the same job are skipped.
func (s *SchedulerServiceImpl) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return nil
	}

	logger := cronLogger{s.Logger.Sugar()}
	scheduler := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	for name, schedule := range s.schedules() {
		if schedule == "" {
			s.Logger.Info("Scheduled job disabled", zap.String("job", string(name)))
			continue
		}

		job := name
		entryID, err := scheduler.AddFunc(schedule, func() {
			s.Trigger(context.Background(), job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		s.jobEntries[name] = entryID
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.Logger.Info("Scheduler started", zap.Int("jobs", len(s.jobEntries)))
	return nil
}

func (s *SchedulerServiceImpl) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.jobEntries = make(map[JobName]cron.EntryID)
	s.mu.Unlock()

	if scheduler != nil {
		ctx := scheduler.Stop()
		<-ctx.Done()
		s.Logger.Info("Scheduler stopped")
	}
}

func (s *SchedulerServiceImpl) ListJobs() []ScheduledJob {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := []ScheduledJob{}
	for _, name := range []JobName{JobAutoSync, JobPurgeWebhookLogs} {
		job := ScheduledJob{
			Name:     name,
			Schedule: s.schedules()[name],
		}
		if last, ok := s.lastRuns[name]; ok {
			job.LastRun = &last
		}
		if entryID, ok := s.jobEntries[name]; ok && s.scheduler != nil {
			job.Enabled = true
			if next := s.scheduler.Entry(entryID).Next; !next.IsZero() {
				job.NextRun = &next
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func (s *SchedulerServiceImpl) Trigger(ctx context.Context, name JobName) (*JobRun, error) {
	switch name {
	case JobAutoSync:
		return s.RunAutoSync(ctx), nil
	case JobPurgeWebhookLogs:
		return s.PurgeWebhookLogs(ctx), nil
	default:
		return nil, apperror.Newf(apperror.KindNotFound, "Unknown job %s", name)
	}
}

func (s *SchedulerServiceImpl) GetRuns(ctx context.Context, name JobName, limit int) ([]JobRun, error) {
	if _, ok := s.schedules()[name]; !ok {
		return nil, apperror.Newf(apperror.KindNotFound, "Unknown job %s", name)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.GetLogs(ctx, name, limit)
}

// RunAutoSync syncs every active account whose last sync is older than the
// configured interval. One failing account does not stop the others.
func (s *SchedulerServiceImpl) RunAutoSync(ctx context.Context) *JobRun {
	run := s.begin(JobAutoSync)

	for _, acc := range s.Accounts.GetActiveAccounts(ctx) {
		if !s.Syncer.ShouldSync(ctx, acc.ID, s.Config.AutoSyncIntervalMinutes) {
			continue
		}
		run.Processed++

		if _, err := s.Syncer.SyncAccountLeads(ctx, acc.ID); err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: %v", acc.ID, err))
			s.Logger.Warn("Scheduled sync failed",
				zap.String("account_id", acc.ID),
				zap.Error(err),
			)
			continue
		}
		run.Affected++
	}

	return s.finish(ctx, run)
}

func (s *SchedulerServiceImpl) PurgeWebhookLogs(ctx context.Context) *JobRun {
	run := s.begin(JobPurgeWebhookLogs)

	hours := int(s.Config.WebhookLogRetention / time.Hour)
	run.Affected = s.Purger.ClearOldLogs(ctx, hours)
	run.Processed = run.Affected

	return s.finish(ctx, run)
}

func (s *SchedulerServiceImpl) begin(name JobName) *JobRun {
	return &JobRun{
		ID:        uuid.New().String(),
		Job:       name,
		StartTime: s.now(),
	}
}

func (s *SchedulerServiceImpl) finish(ctx context.Context, run *JobRun) *JobRun {
	end := s.now()
	run.EndTime = &end

	switch {
	case len(run.Errors) == 0:
		run.Status = RunStatusSuccess
	case run.Affected > 0:
		run.Status = RunStatusPartialFail
	default:
		run.Status = RunStatusFailed
	}

	s.mu.Lock()
	s.lastRuns[run.Job] = run.StartTime
	s.mu.Unlock()

	if err := s.Repo.CreateLog(context.WithoutCancel(ctx), run); err != nil {
		s.Logger.Error("Failed to store job run", zap.String("job", string(run.Job)), zap.Error(err))
	}

	s.Logger.Info("Scheduled job finished",
		zap.String("job", string(run.Job)),
		zap.String("status", run.Status),
		zap.Int("processed", run.Processed),
		zap.Int("affected", run.Affected),
		zap.Duration("duration", end.Sub(run.StartTime)),
	)
	return run
}

// cronLogger adapts zap to the cron.Logger interface
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
