package jobs

import (
	"context"
	"sync"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/metrics"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"
	"forklifttracker/internal/services"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	companyPageSize = 200
	scanConcurrency = 5
	// SummaryTTL outlives one scan interval so the endpoint never sees a gap.
	SummaryTTL = 2 * time.Hour
)

// ServiceDueScanner finds forklifts whose next service is overdue or close,
// caches a summary per company and notifies company members.
type ServiceDueScanner struct {
	companyRepo  repositories.CompanyRepository
	forkliftRepo repositories.ForkliftRepository
	cacheSvc     caching.CacheService
	publisher    services.EventPublisher
	days         int
	now          func() time.Time
}

// ScanResult totals one scan across companies.
type ScanResult struct {
	Companies int
	Overdue   int
	DueSoon   int
	Failed    int
}

func NewServiceDueScanner(companyRepo repositories.CompanyRepository, forkliftRepo repositories.ForkliftRepository,
	cacheSvc caching.CacheService, publisher services.EventPublisher, days int) *ServiceDueScanner {
	if days <= 0 {
		days = services.DefaultServiceDueDays
	}
	return &ServiceDueScanner{
		companyRepo:  companyRepo,
		forkliftRepo: forkliftRepo,
		cacheSvc:     cacheSvc,
		publisher:    publisher,
		days:         days,
		now:          time.Now,
	}
}

// ScanAll scans every company. A failing company is logged and skipped.
func (s *ServiceDueScanner) ScanAll(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{}
	var mu sync.Mutex

	for offset := 0; ; offset += companyPageSize {
		companies, err := s.companyRepo.ListAll(ctx, companyPageSize, offset)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to list companies for service-due scan")
			return result, err
		}

		semaphore := make(chan struct{}, scanConcurrency)
		var wg sync.WaitGroup
		for _, company := range companies {
			wg.Add(1)
			go func(companyID uuid.UUID) {
				defer wg.Done()
				semaphore <- struct{}{}
				defer func() { <-semaphore }()

				summary, err := s.ScanCompany(ctx, companyID)

				mu.Lock()
				defer mu.Unlock()
				result.Companies++
				if err != nil {
					result.Failed++
					return
				}
				result.Overdue += summary.Overdue
				result.DueSoon += summary.DueSoon
			}(company.ID)
		}
		wg.Wait()

		if len(companies) < companyPageSize {
			break
		}
	}

	log.Ctx(ctx).Info().
		Int("companies", result.Companies).
		Int("overdue", result.Overdue).
		Int("due_soon", result.DueSoon).
		Int("failed", result.Failed).
		Msg("Service-due scan completed")
	return result, nil
}

// ScanCompany builds, caches and announces the summary of one company.
func (s *ServiceDueScanner) ScanCompany(ctx context.Context, companyID uuid.UUID) (*models.ServiceDueSummary, error) {
	summary, err := services.BuildServiceDueSummary(ctx, s.forkliftRepo, companyID, s.days, s.now())
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("company_id", companyID.String()).Msg("Service-due scan failed")
		return nil, err
	}

	if err := s.cacheSvc.SetServiceDue(ctx, summary, SummaryTTL); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("company_id", companyID.String()).Msg("Failed to cache service-due summary")
	}
	metrics.ForkliftsServiceOverdue.WithLabelValues(companyID.String()).Set(float64(summary.Overdue))

	for _, item := range summary.Items {
		forkliftID := item.ForkliftID
		event := models.NewEvent(models.EventForkliftServiceDue, companyID)
		event.ForkliftID = &forkliftID
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("forklift_id", forkliftID.String()).Msg("Failed to publish service-due event")
		}
	}
	return summary, nil
}
