package services

import (
	"bytes"
	"context"
	"time"

	"forklifttracker/internal/i18n"
	"forklifttracker/internal/reports"
	"forklifttracker/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ServiceSheetURLExpiry is the lifetime of a service sheet download link.
const ServiceSheetURLExpiry = 24 * time.Hour

// ServiceSheet points at a generated PDF.
type ServiceSheet struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Language  string    `json:"language"`
}

type ReportService interface {
	PrintForklift(ctx context.Context, userID, forkliftID uuid.UUID, lang string) ([]byte, error)
	PrintCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer, lang string) ([]byte, error)
	GenerateServiceSheet(ctx context.Context, userID, forkliftID uuid.UUID, lang string) (*ServiceSheet, error)
}

type reportService struct {
	forklifts ForkliftService
	catalog   *i18n.Catalog
	objects   storage.ObjectStorage
	now       func() time.Time
}

func NewReportService(forklifts ForkliftService, catalog *i18n.Catalog, objects storage.ObjectStorage) ReportService {
	return &reportService{
		forklifts: forklifts,
		catalog:   catalog,
		objects:   objects,
		now:       time.Now,
	}
}

func (s *reportService) PrintForklift(ctx context.Context, userID, forkliftID uuid.UUID, lang string) ([]byte, error) {
	f, err := s.forklifts.Get(ctx, userID, forkliftID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := reports.RenderForklift(&buf, f, s.catalog.Translator(lang), s.now()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *reportService) PrintCustomer(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID, customer, lang string) ([]byte, error) {
	forklifts, err := s.forklifts.ListByCustomer(ctx, userID, companyID, customer)
	if err != nil {
		return nil, err
	}
	if len(forklifts) == 0 {
		return nil, NotFound("No forklifts for this customer")
	}
	var buf bytes.Buffer
	if err := reports.RenderCustomerList(&buf, forklifts[0].Customer, forklifts, s.catalog.Translator(lang)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *reportService) GenerateServiceSheet(ctx context.Context, userID, forkliftID uuid.UUID, lang string) (*ServiceSheet, error) {
	f, err := s.forklifts.Get(ctx, userID, forkliftID)
	if err != nil {
		return nil, err
	}

	tr := s.catalog.Translator(lang)
	now := s.now().UTC()
	var buf bytes.Buffer
	if err := reports.ServiceSheet(&buf, f, tr, now); err != nil {
		return nil, err
	}

	key := storage.ServiceSheetKey(f.ID, tr.Lang(), now.Format("20060102T150405Z"))
	if err := s.objects.Upload(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "application/pdf"); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("object", key).Msg("Failed to store service sheet")
		return nil, err
	}
	url, err := s.objects.PresignedURL(ctx, key, ServiceSheetURLExpiry)
	if err != nil {
		return nil, err
	}

	return &ServiceSheet{URL: url, ExpiresAt: now.Add(ServiceSheetURLExpiry), Language: tr.Lang()}, nil
}
