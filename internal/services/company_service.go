package services

import (
	"context"
	"strings"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"
	"forklifttracker/internal/storage"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
	"github.com/rs/zerolog/log"
)

const (
	joinCodeAttempts = 5
	maxCompanyName   = 200
	// DefaultServiceDueDays is the look-ahead window of the service-due listing.
	DefaultServiceDueDays = 7
	maxServiceDueDays     = 365
)

// NewJoinCode returns a random upper-case alphanumeric share code.
func NewJoinCode() string {
	return random.String(models.JoinCodeLength, random.Uppercase, random.Numeric)
}

type CompanyService interface {
	Create(ctx context.Context, userID uuid.UUID, name string) (*models.Company, error)
	Join(ctx context.Context, userID uuid.UUID, joinCode string) (*models.Company, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error)
	Get(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, error)
	IsAdmin(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	ListUsers(ctx context.Context, userID, companyID uuid.UUID) ([]*models.CompanyUser, error)
	UpdateUser(ctx context.Context, actorID, companyID, targetID uuid.UUID, req *UpdateMemberRequest) (*models.CompanyUser, error)
	RegenerateCode(ctx context.Context, userID, companyID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID, companyID uuid.UUID) error
	// ServiceDue lists forklifts due within days. Callers check membership.
	ServiceDue(ctx context.Context, companyID uuid.UUID, days int) (*models.ServiceDueSummary, error)
}

// UpdateMemberRequest changes only the flags that are set.
type UpdateMemberRequest struct {
	IsAdmin   *bool `json:"is_admin"`
	IsBlocked *bool `json:"is_blocked"`
}

type companyService struct {
	companyRepo    repositories.CompanyRepository
	membershipRepo repositories.MembershipRepository
	forkliftRepo   repositories.ForkliftRepository
	access         AccessService
	cacheSvc       caching.CacheService
	objects        storage.ObjectStorage
	audit          AuditLogsService
	publisher      EventPublisher
	newCode        func() string
	now            func() time.Time
}

func NewCompanyService(
	companyRepo repositories.CompanyRepository,
	membershipRepo repositories.MembershipRepository,
	forkliftRepo repositories.ForkliftRepository,
	access AccessService,
	cacheSvc caching.CacheService,
	objects storage.ObjectStorage,
	audit AuditLogsService,
	publisher EventPublisher,
) CompanyService {
	return &companyService{
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		forkliftRepo:   forkliftRepo,
		access:         access,
		cacheSvc:       cacheSvc,
		objects:        objects,
		audit:          audit,
		publisher:      publisher,
		newCode:        NewJoinCode,
		now:            time.Now,
	}
}

func (s *companyService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("Company name is required")
	}
	if len(name) > maxCompanyName {
		return nil, Invalid("Company name is too long")
	}

	now := s.now()
	company := &models.Company{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: userID,
		CreatedAt: now,
	}
	owner := &models.UserCompany{
		UserID:    userID,
		CompanyID: company.ID,
		IsAdmin:   true,
		JoinedAt:  now,
	}

	var err error
	for attempt := 1; attempt <= joinCodeAttempts; attempt++ {
		company.JoinCode = s.newCode()
		err = s.companyRepo.CreateWithOwner(ctx, company, owner)
		if err == nil {
			break
		}
		if !repositories.IsUniqueViolation(err) {
			log.Ctx(ctx).Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create company")
			return nil, err
		}
		log.Ctx(ctx).Debug().Int("attempt", attempt).Msg("Join code collision, retrying")
	}
	if err != nil {
		return nil, err
	}

	s.audit.LogEntityCreate(ctx, company.ID, "companies", company.ID.String(), &userID, CreateEntityValues(company))
	log.Ctx(ctx).Info().Str("company_id", company.ID.String()).Str("user_id", userID.String()).Msg("Company created")
	return company, nil
}

func (s *companyService) Join(ctx context.Context, userID uuid.UUID, joinCode string) (*models.Company, error) {
	code := strings.ToUpper(strings.TrimSpace(joinCode))
	if code == "" {
		return nil, Invalid("Join code is required")
	}

	company, err := s.companyRepo.GetByJoinCode(ctx, code)
	if err != nil {
		if isNoRows(err) {
			return nil, NotFound("Invalid join code")
		}
		return nil, err
	}

	m := &models.UserCompany{
		UserID:    userID,
		CompanyID: company.ID,
		JoinedAt:  s.now(),
	}
	inserted, err := s.membershipRepo.AddIfAbsent(ctx, m)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.access.Forget(ctx, userID, company.ID)
		s.audit.LogEntityCreate(ctx, company.ID, "user_companies", userID.String(), &userID, CreateEntityValues(m))
		event := models.NewEvent(models.EventCompanyMembersChanged, company.ID)
		event.ActorID = &userID
		publish(ctx, s.publisher, event)
	}

	return company, nil
}

func (s *companyService) List(ctx context.Context, userID uuid.UUID) ([]*models.CompanyMembership, error) {
	companies, err := s.companyRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []*models.CompanyMembership{}
	}
	return companies, nil
}

func (s *companyService) Get(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, error) {
	if err := s.access.RequireMember(ctx, userID, companyID, "Access denied"); err != nil {
		return nil, err
	}
	return s.access.Company(ctx, companyID)
}

func (s *companyService) IsAdmin(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	return s.access.IsAdmin(ctx, userID, companyID)
}

func (s *companyService) ListUsers(ctx context.Context, userID, companyID uuid.UUID) ([]*models.CompanyUser, error) {
	if err := s.access.RequireAdmin(ctx, userID, companyID, "Only company admins can view user list"); err != nil {
		return nil, err
	}
	users, err := s.membershipRepo.ListUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.CompanyUser{}
	}
	return users, nil
}

func (s *companyService) UpdateUser(ctx context.Context, actorID, companyID, targetID uuid.UUID, req *UpdateMemberRequest) (*models.CompanyUser, error) {
	if err := s.access.RequireAdmin(ctx, actorID, companyID, "Only company admins can manage users"); err != nil {
		return nil, err
	}
	if req == nil || (req.IsAdmin == nil && req.IsBlocked == nil) {
		return nil, Invalid("Nothing to update")
	}

	users, err := s.membershipRepo.ListUsers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var target *models.CompanyUser
	for _, u := range users {
		if u.UserID == targetID {
			target = u
			break
		}
	}
	if target == nil {
		return nil, NotFound("User is not a member of this company")
	}
	if target.IsCreator {
		return nil, Conflict("The company creator cannot be changed")
	}
	if actorID == targetID {
		if (req.IsBlocked != nil && *req.IsBlocked) || (req.IsAdmin != nil && !*req.IsAdmin) {
			return nil, Conflict("You cannot block or demote yourself")
		}
	}

	before := &models.UserCompany{UserID: targetID, CompanyID: companyID, IsAdmin: target.IsAdmin, IsBlocked: target.IsBlocked}
	if req.IsAdmin != nil {
		target.IsAdmin = *req.IsAdmin
	}
	if req.IsBlocked != nil {
		target.IsBlocked = *req.IsBlocked
	}
	after := &models.UserCompany{UserID: targetID, CompanyID: companyID, IsAdmin: target.IsAdmin, IsBlocked: target.IsBlocked}

	if err := s.membershipRepo.UpdateFlags(ctx, after); err != nil {
		if isNoRows(err) {
			return nil, NotFound("User is not a member of this company")
		}
		return nil, err
	}
	s.access.Forget(ctx, targetID, companyID)

	s.audit.LogEntityUpdate(ctx, companyID, "user_companies", targetID.String(), &actorID, CreateEntityValues(before), CreateEntityValues(after))
	event := models.NewEvent(models.EventCompanyMembersChanged, companyID)
	event.ActorID = &actorID
	publish(ctx, s.publisher, event)

	return target, nil
}

func (s *companyService) RegenerateCode(ctx context.Context, userID, companyID uuid.UUID) (string, error) {
	if err := s.access.RequireAdmin(ctx, userID, companyID, "Only company admins can regenerate the join code"); err != nil {
		return "", err
	}

	var err error
	for attempt := 1; attempt <= joinCodeAttempts; attempt++ {
		code := s.newCode()
		err = s.companyRepo.UpdateJoinCode(ctx, companyID, code)
		if err == nil {
			s.access.ForgetCompany(ctx, companyID)
			s.audit.LogEntityUpdate(ctx, companyID, "companies", companyID.String(), &userID, nil, models.JSONB{"join_code_regenerated": true})
			return code, nil
		}
		if isNoRows(err) {
			return "", NotFound("Company not found")
		}
		if !repositories.IsUniqueViolation(err) {
			return "", err
		}
	}
	return "", err
}

func (s *companyService) Delete(ctx context.Context, userID, companyID uuid.UUID) error {
	if err := s.access.RequireAdmin(ctx, userID, companyID, "Only company admins can delete the company"); err != nil {
		return err
	}
	company, err := s.access.Company(ctx, companyID)
	if err != nil {
		return err
	}

	forklifts, err := s.forkliftRepo.ListByCompanies(ctx, []uuid.UUID{companyID})
	if err != nil {
		return err
	}
	// Members are resolved before the rows disappear.
	recipients, err := s.membershipRepo.ActiveUserIDs(ctx, companyID)
	if err != nil {
		return err
	}

	if err := s.companyRepo.DeleteCascade(ctx, companyID); err != nil {
		if isNoRows(err) {
			return NotFound("Company not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("company_id", companyID.String()).Msg("Failed to delete company")
		return err
	}

	if s.objects != nil {
		for _, f := range forklifts {
			if err := s.objects.DeletePrefix(ctx, storage.ForkliftPrefix(f.ID)); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("forklift_id", f.ID.String()).Msg("Failed to remove stored objects")
			}
		}
	}
	s.access.ForgetCompany(ctx, companyID)

	s.audit.LogEntityDelete(ctx, companyID, "companies", companyID.String(), &userID, CreateEntityValues(company))
	event := models.NewEvent(models.EventCompanyDeleted, companyID)
	event.ActorID = &userID
	event.Recipients = recipients
	publish(ctx, s.publisher, event)

	log.Ctx(ctx).Info().Str("company_id", companyID.String()).Int("forklifts", len(forklifts)).Msg("Company deleted")
	return nil
}

func (s *companyService) ServiceDue(ctx context.Context, companyID uuid.UUID, days int) (*models.ServiceDueSummary, error) {
	if days == 0 {
		days = DefaultServiceDueDays
	}
	if days < 0 || days > maxServiceDueDays {
		return nil, Invalid("days must be between 1 and 365")
	}

	now := s.now()
	if s.cacheSvc != nil {
		if cached, err := s.cacheSvc.GetServiceDue(ctx, companyID); err == nil && summaryIsFresh(cached, days, now) {
			return cached, nil
		}
	}
	return BuildServiceDueSummary(ctx, s.forkliftRepo, companyID, days, now)
}

// summaryIsFresh accepts a cached summary for the same window generated today
// (UTC), since days_until_service changes at midnight.
func summaryIsFresh(cached *models.ServiceDueSummary, days int, now time.Time) bool {
	if cached == nil || cached.WithinDays != days {
		return false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	return !cached.GeneratedAt.UTC().Before(today)
}

// BuildServiceDueSummary lists forklifts of a company that are overdue or due
// within days of now.
func BuildServiceDueSummary(ctx context.Context, forkliftRepo repositories.ForkliftRepository, companyID uuid.UUID, days int, now time.Time) (*models.ServiceDueSummary, error) {
	today := now.UTC().Truncate(24 * time.Hour)
	forklifts, err := forkliftRepo.ListServiceDue(ctx, companyID, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	summary := &models.ServiceDueSummary{
		CompanyID:   companyID,
		WithinDays:  days,
		Items:       []*models.ServiceDueItem{},
		GeneratedAt: now.UTC(),
	}
	for _, f := range forklifts {
		if f.NextServiceDate == nil {
			continue
		}
		status, daysUntil := models.ServiceStatus(f.NextServiceDate, now)
		item := &models.ServiceDueItem{
			ForkliftID:      f.ID,
			CompanyID:       f.CompanyID,
			Customer:        f.Customer,
			Brand:           f.Brand,
			ModelType:       f.ModelType,
			SerialNumber:    f.SerialNumber,
			NextServiceDate: *f.NextServiceDate,
			ServiceStatus:   status,
			DaysUntil:       *daysUntil,
		}
		switch status {
		case models.ServiceStatusOverdue:
			summary.Overdue++
		case models.ServiceStatusDueSoon:
			summary.DueSoon++
		default:
			summary.Upcoming++
		}
		summary.Items = append(summary.Items, item)
	}
	return summary, nil
}
