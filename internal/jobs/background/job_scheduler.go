package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"forklifttracker/internal/jobs"
	"forklifttracker/internal/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const (
	ServiceDueScanJob   = "service-due-scan"
	AuditRetentionJob   = "audit-retention"
	serviceDueInterval  = time.Hour
	auditRetentionEvery = 24 * time.Hour
)

// ServiceDueRunner is satisfied by *jobs.ServiceDueScanner.
type ServiceDueRunner interface {
	ScanAll(ctx context.Context) (*jobs.ScanResult, error)
}

// AuditPurger is satisfied by services.AuditLogsService.
type AuditPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// JobScheduler runs the periodic maintenance jobs of the service
type JobScheduler struct {
	scheduler gocron.Scheduler
	scanner   ServiceDueRunner
	auditSvc  AuditPurger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewJobScheduler creates a scheduler with the built-in jobs registered.
func NewJobScheduler(scanner ServiceDueRunner, auditSvc AuditPurger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(log.Logger.With().Str("component", "scheduler").Logger().WithContext(context.Background()))
	js := &JobScheduler{
		scheduler: scheduler,
		scanner:   scanner,
		auditSvc:  auditSvc,
		jobs:      make(map[string]gocron.Job),
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Ctx(js.ctx).Info().Int("jobs", len(js.jobs)).Msg("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return
func (js *JobScheduler) Stop() error {
	log.Ctx(js.ctx).Info().Msg("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	if js.scanner != nil {
		// Hourly, first run at startup so the summaries exist before the first request.
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(serviceDueInterval),
			gocron.NewTask(js.runServiceDueScan, js.ctx),
			gocron.WithName(ServiceDueScanJob),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return fmt.Errorf("register %s: %w", ServiceDueScanJob, err)
		}
		js.jobs[ServiceDueScanJob] = job
	}

	if js.auditSvc != nil {
		job, err := js.scheduler.NewJob(
			gocron.DurationJob(auditRetentionEvery),
			gocron.NewTask(js.runAuditRetention, js.ctx),
			gocron.WithName(AuditRetentionJob),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register %s: %w", AuditRetentionJob, err)
		}
		js.jobs[AuditRetentionJob] = job
	}
	return nil
}

func (js *JobScheduler) runServiceDueScan(ctx context.Context) error {
	_, err := js.scanner.ScanAll(ctx)
	metrics.JobRuns.WithLabelValues(ServiceDueScanJob, metrics.Result(err)).Inc()
	return err
}

func (js *JobScheduler) runAuditRetention(ctx context.Context) error {
	deleted, err := js.auditSvc.PurgeExpired(ctx, time.Now())
	metrics.JobRuns.WithLabelValues(AuditRetentionJob, metrics.Result(err)).Inc()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Audit log retention failed")
		return err
	}
	log.Ctx(ctx).Info().Int64("deleted", deleted).Msg("Purged expired audit logs")
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if _, exists := js.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	log.Ctx(js.ctx).Info().Str("job", name).Dur("interval", interval).Msg("Added custom job")
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
}
