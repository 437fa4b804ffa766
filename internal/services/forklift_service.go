package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"forklifttracker/internal/caching"
	"forklifttracker/internal/common"
	"forklifttracker/internal/models"
	"forklifttracker/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxTextField = 255
	maxLongText  = 10000
)

// ForkliftRequest is the body of create and partial update. Absent fields are
// nil and stay unchanged. An empty string clears optional text and dates.
type ForkliftRequest struct {
	CompanyID       *string `json:"company_id"`
	Customer        *string `json:"customer"`
	Brand           *string `json:"brand"`
	ModelType       *string `json:"model_type"`
	SerialNumber    *string `json:"serial_number"`
	EngineSpecs     *string `json:"engine_specs"`
	Transmission    *string `json:"transmission"`
	TireSpecs       *string `json:"tire_specs"`
	ServiceNotes    *string `json:"service_notes"`
	LastServiceDate *string `json:"last_service_date"`
	NextServiceDate *string `json:"next_service_date"`
	ServiceHours    *int    `json:"service_hours"`

	Filters500h     *string `json:"filters_500h"`
	Lubricants500h  *string `json:"lubricants_500h"`
	Filters1000h    *string `json:"filters_1000h"`
	Lubricants1000h *string `json:"lubricants_1000h"`
	Filters1500h    *string `json:"filters_1500h"`
	Lubricants1500h *string `json:"lubricants_1500h"`
	Filters2000h    *string `json:"filters_2000h"`
	Lubricants2000h *string `json:"lubricants_2000h"`

	Documents500h  []DocumentEntry `json:"documents_500h"`
	Documents1000h []DocumentEntry `json:"documents_1000h"`
	Documents1500h []DocumentEntry `json:"documents_1500h"`
	Documents2000h []DocumentEntry `json:"documents_2000h"`
}

// Documents returns the document arrays present in the request. An empty
// but present array removes every document of its interval.
func (r *ForkliftRequest) Documents() map[int][]DocumentEntry {
	out := map[int][]DocumentEntry{}
	for hours, docs := range map[int][]DocumentEntry{
		500:  r.Documents500h,
		1000: r.Documents1000h,
		1500: r.Documents1500h,
		2000: r.Documents2000h,
	} {
		if docs != nil {
			out[hours] = docs
		}
	}
	return out
}

func (r *ForkliftRequest) intervalText(hours int) (filters, lubricants *string) {
	switch hours {
	case 500:
		return r.Filters500h, r.Lubricants500h
	case 1000:
		return r.Filters1000h, r.Lubricants1000h
	case 1500:
		return r.Filters1500h, r.Lubricants1500h
	case 2000:
		return r.Filters2000h, r.Lubricants2000h
	}
	return nil, nil
}

type ForkliftService interface {
	// List returns forklifts of the caller's active companies, optionally only one of them.
	List(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]*models.Forklift, error)
	Get(ctx context.Context, userID, forkliftID uuid.UUID) (*models.Forklift, error)
	Create(ctx context.Context, userID uuid.UUID, req *ForkliftRequest) (*models.Forklift, error)
	Update(ctx context.Context, userID, forkliftID uuid.UUID, req *ForkliftRequest) (*models.Forklift, error)
	Delete(ctx context.Context, userID, forkliftID uuid.UUID) error
	ListDocuments(ctx context.Context, userID, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error)
	DeleteDocument(ctx context.Context, userID, forkliftID, documentID uuid.UUID) error
	// ListByCustomer returns the caller's visible forklifts of one customer, for printing.
	ListByCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer string) ([]*models.Forklift, error)
}

type forkliftService struct {
	forkliftRepo repositories.ForkliftRepository
	access       AccessService
	documents    DocumentService
	audit        AuditLogsService
	publisher    EventPublisher
	cacheSvc     caching.CacheService
	now          func() time.Time
}

func NewForkliftService(
	forkliftRepo repositories.ForkliftRepository,
	access AccessService,
	documents DocumentService,
	audit AuditLogsService,
	publisher EventPublisher,
	cacheSvc caching.CacheService,
) ForkliftService {
	return &forkliftService{
		forkliftRepo: forkliftRepo,
		access:       access,
		documents:    documents,
		audit:        audit,
		publisher:    publisher,
		cacheSvc:     cacheSvc,
		now:          time.Now,
	}
}

func (s *forkliftService) List(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) ([]*models.Forklift, error) {
	companyIDs, err := s.access.ActiveCompanyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if companyID != nil {
		allowed := false
		for _, id := range companyIDs {
			if id == *companyID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, Forbidden("You don't have access to this company")
		}
		companyIDs = []uuid.UUID{*companyID}
	}
	if len(companyIDs) == 0 {
		return []*models.Forklift{}, nil
	}

	forklifts, err := s.forkliftRepo.ListByCompanies(ctx, companyIDs)
	if err != nil {
		return nil, err
	}
	if forklifts == nil {
		forklifts = []*models.Forklift{}
	}
	if err := s.documents.Attach(ctx, forklifts, false); err != nil {
		return nil, err
	}
	now := s.now()
	for _, f := range forklifts {
		f.ApplyServiceStatus(now)
	}
	return forklifts, nil
}

func (s *forkliftService) ListByCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer string) ([]*models.Forklift, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, Invalid("customer is required")
	}
	all, err := s.List(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	out := []*models.Forklift{}
	for _, f := range all {
		if strings.EqualFold(f.Customer, customer) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].ModelType < out[j].ModelType
	})
	return out, nil
}

// load returns the forklift if the caller is an active member of its company.
func (s *forkliftService) load(ctx context.Context, userID, forkliftID uuid.UUID) (*models.Forklift, error) {
	f, err := s.forkliftRepo.GetByID(ctx, forkliftID)
	if err != nil {
		if isNoRows(err) {
			return nil, NotFound("Forklift not found")
		}
		return nil, err
	}
	if err := s.access.RequireMember(ctx, userID, f.CompanyID, "Access denied"); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *forkliftService) finish(ctx context.Context, f *models.Forklift) (*models.Forklift, error) {
	if err := s.documents.Attach(ctx, []*models.Forklift{f}, true); err != nil {
		return nil, err
	}
	f.ApplyServiceStatus(s.now())
	return f, nil
}

func (s *forkliftService) Get(ctx context.Context, userID, forkliftID uuid.UUID) (*models.Forklift, error) {
	f, err := s.load(ctx, userID, forkliftID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, f)
}

func (s *forkliftService) Create(ctx context.Context, userID uuid.UUID, req *ForkliftRequest) (*models.Forklift, error) {
	if req == nil {
		return nil, Invalid("Request body is required")
	}
	if req.CompanyID == nil {
		return nil, Invalid("company_id is required")
	}
	companyID, err := common.ValidateUUID(*req.CompanyID, "company_id")
	if err != nil {
		return nil, Invalid(err.Error())
	}
	for _, required := range []struct {
		name  string
		value *string
	}{{"customer", req.Customer}, {"brand", req.Brand}, {"model_type", req.ModelType}} {
		if required.value == nil || strings.TrimSpace(*required.value) == "" {
			return nil, Invalid(required.name + " is required")
		}
	}

	now := s.now()
	f := &models.Forklift{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyForkliftFields(f, req); err != nil {
		return nil, err
	}
	plan, err := PlanDocuments(req.Documents())
	if err != nil {
		return nil, err
	}

	if err := s.access.RequireMember(ctx, userID, companyID, "You don't have access to this company"); err != nil {
		return nil, err
	}

	staged, err := s.documents.Stage(ctx, f, userID, plan)
	if err != nil {
		return nil, err
	}
	if err := s.forkliftRepo.Create(ctx, f, staged.Changes()); err != nil {
		s.documents.Discard(ctx, staged)
		log.Ctx(ctx).Error().Err(err).Str("company_id", companyID.String()).Msg("Failed to create forklift")
		return nil, err
	}
	s.documents.Commit(ctx, f, userID, staged)
	s.forgetServiceDue(ctx, f.CompanyID)

	s.audit.LogEntityCreate(ctx, f.CompanyID, "forklifts", f.ID.String(), &userID, CreateEntityValues(f))
	s.notify(ctx, models.EventForkliftCreated, f.CompanyID, f.ID, userID)

	return s.finish(ctx, f)
}

func (s *forkliftService) Update(ctx context.Context, userID, forkliftID uuid.UUID, req *ForkliftRequest) (*models.Forklift, error) {
	if req == nil {
		return nil, Invalid("Request body is required")
	}
	f, err := s.load(ctx, userID, forkliftID)
	if err != nil {
		return nil, err
	}
	before := CreateEntityValues(f)
	previousCompany := f.CompanyID

	if req.CompanyID != nil {
		target, err := common.ValidateUUID(*req.CompanyID, "company_id")
		if err != nil {
			return nil, Invalid(err.Error())
		}
		if target != f.CompanyID {
			if err := s.access.RequireMember(ctx, userID, target, "You don't have access to this company"); err != nil {
				return nil, err
			}
			owner, err := s.access.Membership(ctx, f.UserID, target)
			if err != nil {
				return nil, err
			}
			if !owner.Active() {
				return nil, Forbidden("The forklift owner is not a member of the target company")
			}
			f.CompanyID = target
		}
	}

	if err := applyForkliftFields(f, req); err != nil {
		return nil, err
	}
	plan, err := PlanDocuments(req.Documents())
	if err != nil {
		return nil, err
	}

	f.UpdatedAt = s.now()
	staged, err := s.documents.Stage(ctx, f, userID, plan)
	if err != nil {
		return nil, err
	}
	if err := s.forkliftRepo.Update(ctx, f, staged.Changes()); err != nil {
		s.documents.Discard(ctx, staged)
		if isNoRows(err) {
			return nil, NotFound("Forklift not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("forklift_id", f.ID.String()).Msg("Failed to update forklift")
		return nil, err
	}
	s.documents.Commit(ctx, f, userID, staged)
	s.forgetServiceDue(ctx, f.CompanyID, previousCompany)

	s.audit.LogEntityUpdate(ctx, f.CompanyID, "forklifts", f.ID.String(), &userID, before, CreateEntityValues(f))
	s.notify(ctx, models.EventForkliftUpdated, f.CompanyID, f.ID, userID)
	if f.CompanyID != previousCompany {
		s.notify(ctx, models.EventForkliftDeleted, previousCompany, f.ID, userID)
	}

	return s.finish(ctx, f)
}

// canManage allows the owner and company admins.
func (s *forkliftService) canManage(ctx context.Context, userID uuid.UUID, f *models.Forklift, denied string) error {
	if f.UserID == userID {
		return nil
	}
	return s.access.RequireAdmin(ctx, userID, f.CompanyID, denied)
}

func (s *forkliftService) Delete(ctx context.Context, userID, forkliftID uuid.UUID) error {
	f, err := s.load(ctx, userID, forkliftID)
	if err != nil {
		return err
	}
	if err := s.canManage(ctx, userID, f, "Only the owner or a company admin can delete this forklift"); err != nil {
		return err
	}

	if err := s.forkliftRepo.Delete(ctx, f.ID); err != nil {
		if isNoRows(err) {
			return NotFound("Forklift not found")
		}
		return err
	}
	s.documents.Purge(ctx, f.ID)
	s.forgetServiceDue(ctx, f.CompanyID)

	s.audit.LogEntityDelete(ctx, f.CompanyID, "forklifts", f.ID.String(), &userID, CreateEntityValues(f))
	s.notify(ctx, models.EventForkliftDeleted, f.CompanyID, f.ID, userID)
	return nil
}

func (s *forkliftService) ListDocuments(ctx context.Context, userID, forkliftID uuid.UUID) ([]*models.ForkliftDocument, error) {
	f, err := s.load(ctx, userID, forkliftID)
	if err != nil {
		return nil, err
	}
	return s.documents.List(ctx, f.ID)
}

func (s *forkliftService) DeleteDocument(ctx context.Context, userID, forkliftID, documentID uuid.UUID) error {
	f, err := s.load(ctx, userID, forkliftID)
	if err != nil {
		return err
	}
	if err := s.canManage(ctx, userID, f, "Only the owner or a company admin can delete documents"); err != nil {
		return err
	}
	doc, err := s.documents.Get(ctx, f.ID, documentID)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, doc, userID); err != nil {
		return err
	}
	s.notify(ctx, models.EventForkliftUpdated, f.CompanyID, f.ID, userID)
	return nil
}

// forgetServiceDue drops cached service-due summaries so the next listing
// reads the database.
func (s *forkliftService) forgetServiceDue(ctx context.Context, companyIDs ...uuid.UUID) {
	if s.cacheSvc == nil {
		return
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range companyIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if err := s.cacheSvc.DeleteServiceDue(ctx, id); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("company_id", id.String()).Msg("Failed to drop cached service-due summary")
		}
	}
}

func (s *forkliftService) notify(ctx context.Context, eventType string, companyID, forkliftID, actorID uuid.UUID) {
	event := models.NewEvent(eventType, companyID)
	event.ForkliftID = &forkliftID
	event.ActorID = &actorID
	publish(ctx, s.publisher, event)
}

// applyForkliftFields copies the present request fields onto f.
func applyForkliftFields(f *models.Forklift, req *ForkliftRequest) error {
	for _, field := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"customer", req.Customer, &f.Customer},
		{"brand", req.Brand, &f.Brand},
		{"model_type", req.ModelType, &f.ModelType},
	} {
		if field.value == nil {
			continue
		}
		v := strings.TrimSpace(*field.value)
		if v == "" {
			return Invalid(field.name + " cannot be empty")
		}
		if len(v) > maxTextField {
			return Invalid(fmt.Sprintf("%s cannot exceed %d characters", field.name, maxTextField))
		}
		*field.dst = v
	}

	for _, field := range []struct {
		name  string
		value *string
		dst   **string
		max   int
	}{
		{"serial_number", req.SerialNumber, &f.SerialNumber, maxTextField},
		{"engine_specs", req.EngineSpecs, &f.EngineSpecs, maxLongText},
		{"transmission", req.Transmission, &f.Transmission, maxLongText},
		{"tire_specs", req.TireSpecs, &f.TireSpecs, maxLongText},
		{"service_notes", req.ServiceNotes, &f.ServiceNotes, maxLongText},
	} {
		if err := setOptionalText(field.name, field.value, field.dst, field.max); err != nil {
			return err
		}
	}

	for _, hours := range models.ServiceIntervals {
		current := f.Interval(hours)
		filters, lubricants := current.Filters, current.Lubricants
		reqFilters, reqLubricants := req.intervalText(hours)
		if err := setOptionalText(fmt.Sprintf("filters_%dh", hours), reqFilters, &filters, maxLongText); err != nil {
			return err
		}
		if err := setOptionalText(fmt.Sprintf("lubricants_%dh", hours), reqLubricants, &lubricants, maxLongText); err != nil {
			return err
		}
		f.SetIntervalText(hours, filters, lubricants)
	}

	for _, field := range []struct {
		name  string
		value *string
		dst   **time.Time
	}{
		{"last_service_date", req.LastServiceDate, &f.LastServiceDate},
		{"next_service_date", req.NextServiceDate, &f.NextServiceDate},
	} {
		if field.value == nil {
			continue
		}
		if strings.TrimSpace(*field.value) == "" {
			*field.dst = nil
			continue
		}
		d, err := common.ParseDate(*field.value, field.name)
		if err != nil {
			return Invalid(err.Error())
		}
		*field.dst = &d
	}

	if req.ServiceHours != nil {
		if *req.ServiceHours < 0 {
			return Invalid("service_hours cannot be negative")
		}
		hours := *req.ServiceHours
		f.ServiceHours = &hours
	}
	return nil
}

func setOptionalText(name string, value *string, dst **string, max int) error {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if len(v) > max {
		return Invalid(fmt.Sprintf("%s cannot exceed %d characters", name, max))
	}
	if v == "" {
		*dst = nil
		return nil
	}
	*dst = &v
	return nil
}
